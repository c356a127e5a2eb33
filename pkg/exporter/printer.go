package exporter

import (
	"fmt"
	"io"

	"gitvault/pkg/core"
)

// PrintObject 按 git cat-file -p 的格式输出对象
// tree 逐行列出条目，其他类型原样输出 payload
func PrintObject(w io.Writer, obj *core.Object) error {
	if obj.Kind != core.KindTree {
		_, err := w.Write(obj.Payload)
		return err
	}

	tree, err := core.ParseTree(obj.Payload)
	if err != nil {
		return err
	}
	for _, e := range tree.Entries {
		fmt.Fprintf(w, "%s %s %s\t%s\n", padMode(e.Mode), e.Mode.Kind(), e.ID, e.Name)
	}
	return nil
}

// git 打印目录模式时补齐为 040000
func padMode(m core.FileMode) string {
	s := string(m)
	for len(s) < 6 {
		s = "0" + s
	}
	return s
}
