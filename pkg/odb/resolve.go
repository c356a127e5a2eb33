package odb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gitvault/pkg/storage"
	"gitvault/pkg/types"
)

// AmbiguousError 列出前缀匹配到的全部候选 (已排序)
type AmbiguousError struct {
	Prefix     types.HashPrefix
	Candidates []types.ObjectId
}

func (e *AmbiguousError) Error() string {
	ids := make([]string, len(e.Candidates))
	for i, id := range e.Candidates {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s %s: %d candidates (%s)",
		storage.ErrAmbiguousHash, e.Prefix, len(e.Candidates), strings.Join(ids, ", "))
}

func (e *AmbiguousError) Is(target error) bool {
	return target == storage.ErrAmbiguousHash
}

// Resolver 把短哈希展开成唯一 ID，扫描范围只限前缀所在的桶
type Resolver struct {
	medium storage.Medium
}

func NewResolver(medium storage.Medium) *Resolver {
	return &Resolver{medium: medium}
}

func (r *Resolver) Resolve(ctx context.Context, prefix types.HashPrefix) (types.ObjectId, error) {
	names, err := r.medium.List(ctx, prefix.Dir(), prefix.Rest())
	if err != nil {
		return types.ZeroId, fmt.Errorf("failed to list bucket %s: %w", prefix.Dir(), err)
	}

	var matches []types.ObjectId
	for _, name := range names {
		// 介质可以忽略 namePrefix，这里再过滤一次；临时文件等非法名字直接跳过
		id, err := storage.Key{Dir: prefix.Dir(), Name: name}.ID()
		if err != nil || !prefix.Matches(id) {
			continue
		}
		matches = append(matches, id)
	}

	switch len(matches) {
	case 0:
		return types.ZeroId, fmt.Errorf("%w: no object matches %s", storage.ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].String() < matches[j].String()
	})
	return types.ZeroId, &AmbiguousError{Prefix: prefix, Candidates: matches}
}
