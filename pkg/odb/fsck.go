package odb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"golang.org/x/sync/errgroup"
)

// Problem 描述 fsck 发现的一个坏对象
type Problem struct {
	ID  types.ObjectId
	Err error
}

// Report 汇总一次完整扫描的结果
type Report struct {
	Counts    map[core.ObjectKind]int
	Corrupt   []Problem // 哈希不匹配或无法解压
	Malformed []Problem // 哈希匹配但结构损坏
}

func (r *Report) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n + len(r.Corrupt) + len(r.Malformed)
}

func (r *Report) OK() bool {
	return len(r.Corrupt) == 0 && len(r.Malformed) == 0
}

// Fsck 并发扫描所有桶，逐个重新校验对象
// concurrency <= 0 时使用 2*NumCPU
func Fsck(ctx context.Context, store *Store, concurrency int) (*Report, error) {
	if concurrency <= 0 {
		concurrency = 2 * runtime.NumCPU()
	}

	buckets, err := storage.ListBuckets(ctx, store.medium)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	report := &Report{Counts: make(map[core.ObjectKind]int)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, dir := range buckets {
		dir := dir
		g.Go(func() error {
			names, err := store.medium.List(gctx, dir, "")
			if err != nil {
				return fmt.Errorf("failed to list bucket %s: %w", dir, err)
			}
			for _, name := range names {
				id, err := storage.Key{Dir: dir, Name: name}.ID()
				if err != nil {
					continue
				}
				kind, problem, err := checkOne(gctx, store, id)
				if err != nil {
					return err
				}

				mu.Lock()
				switch {
				case problem == nil:
					report.Counts[kind]++
				case errors.Is(problem.Err, core.ErrCorruptObject):
					report.Corrupt = append(report.Corrupt, *problem)
				default:
					report.Malformed = append(report.Malformed, *problem)
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortProblems(report.Corrupt)
	sortProblems(report.Malformed)
	store.logger.Info("fsck finished",
		"objects", report.Total(), "corrupt", len(report.Corrupt), "malformed", len(report.Malformed))
	return report, nil
}

// checkOne 返回的 error 表示扫描本身失败 (介质不可用等)，对象问题放在 Problem 里
func checkOne(ctx context.Context, store *Store, id types.ObjectId) (core.ObjectKind, *Problem, error) {
	data, err := store.medium.Read(ctx, storage.KeyFor(id))
	if err != nil {
		if errors.Is(err, storage.ErrUndecodable) {
			return "", &Problem{ID: id, Err: fmt.Errorf("%w: %v", core.ErrCorruptObject, err)}, nil
		}
		return "", nil, fmt.Errorf("failed to read %s: %w", id, err)
	}

	obj, err := core.VerifyObject(id, data)
	if err != nil {
		return "", &Problem{ID: id, Err: err}, nil
	}
	// tree 的条目名会被还原成路径，额外检查结构
	if obj.Kind == core.KindTree {
		if _, err := core.ParseTree(obj.Payload); err != nil {
			return "", &Problem{ID: id, Err: fmt.Errorf("object %s: %w", id, err)}, nil
		}
	}
	return obj.Kind, nil, nil
}

func sortProblems(ps []Problem) {
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].ID.String() < ps[j].ID.String()
	})
}
