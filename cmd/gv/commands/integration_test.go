package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gitvault/pkg/app"
	"gitvault/pkg/core"
	"gitvault/pkg/odb"
	"gitvault/pkg/storage/disk"
	"gitvault/pkg/types"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloBlob = "3b18e512dba79e4c8300dd08aeb37f8e728b8dad"

// setupIntegrationEnv 搭建一个使用真实文件系统的集成环境，并注入全局 GV
func setupIntegrationEnv(t *testing.T) (*app.App, string) {
	tmpDir := t.TempDir()
	repoDir := filepath.Join(tmpDir, ".gv")
	objectsDir := filepath.Join(repoDir, "objects")

	adapter, err := disk.NewAdapter(objectsDir)
	require.NoError(t, err)

	application := &app.App{
		Store:    odb.New(adapter),
		RepoPath: repoDir,
	}

	// cmd 包依赖全局变量 GV，测试里临时覆盖它
	GV = application
	t.Cleanup(func() {
		GV = nil
		resetFlags()
	})

	return application, tmpDir
}

// resetFlags 把包级 flag 变量恢复为默认值
func resetFlags() {
	hashWrite, hashKind, hashStdin = false, string(core.KindBlob), false
	catType, catSize, catPretty, catExists = false, false, false, false
	commitMsg, commitParents, commitAuthor, commitEmail = "", nil, "", ""
	fsckConcurrency = 0
}

// runCmd 直接调用 RunE 并捕获输出
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	resetFlags()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIntegration_HashObjectWithoutRepo(t *testing.T) {
	GV = nil
	t.Cleanup(resetFlags)

	file := filepath.Join(t.TempDir(), "hello.txt")
	writeFile(t, file, "hello world\n")

	out, err := runCmd(t, hashObjectCmd, file)
	require.NoError(t, err)
	assert.Equal(t, helloBlob+"\n", out)

	// --stdin 与文件结果一致
	hashStdin = true
	hashObjectCmd.SetIn(strings.NewReader("hello world\n"))
	out, err = runCmd(t, hashObjectCmd)
	require.NoError(t, err)
	assert.Equal(t, helloBlob+"\n", out)

	// 没写库，GV 仍未打开
	assert.Nil(t, GV)
}

func TestIntegration_HashObjectInvalidKind(t *testing.T) {
	t.Cleanup(resetFlags)

	hashKind = "chunk"
	_, err := runCmd(t, hashObjectCmd, "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown object kind")
}

func TestIntegration_WriteAndCat(t *testing.T) {
	_, tmpDir := setupIntegrationEnv(t)
	file := filepath.Join(tmpDir, "hello.txt")
	writeFile(t, file, "hello world\n")

	// 1. hash-object -w
	hashWrite = true
	out, err := runCmd(t, hashObjectCmd, file)
	require.NoError(t, err)
	assert.Equal(t, helloBlob+"\n", out)

	// 2. git 兼容的路径布局
	_, err = os.Stat(filepath.Join(tmpDir, ".gv", "objects", helloBlob[:2], helloBlob[2:]))
	require.NoError(t, err)

	tests := []struct {
		name  string
		flag  *bool
		input string
		want  string
	}{
		{"type", &catType, helloBlob, "blob\n"},
		{"size", &catSize, helloBlob, "12\n"},
		{"pretty", &catPretty, helloBlob, "hello world\n"},
		{"pretty by prefix", &catPretty, "3b18e5", "hello world\n"},
		{"exists", &catExists, helloBlob, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*tt.flag = true
			out, err := runCmd(t, catFileCmd, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	// 3. rev-parse 扩展前缀
	out, err = runCmd(t, revParseCmd, "3b18")
	require.NoError(t, err)
	assert.Equal(t, helloBlob+"\n", out)
}

func TestIntegration_CatFileErrors(t *testing.T) {
	setupIntegrationEnv(t)

	catExists = true
	_, err := runCmd(t, catFileCmd, strings.Repeat("a", 40))
	assert.ErrorIs(t, err, ErrMissingObject)

	catPretty = true
	_, err = runCmd(t, catFileCmd, "xyz")
	assert.ErrorIs(t, err, types.ErrInvalidIdentifier)

	// 未指定模式
	_, err = runCmd(t, catFileCmd, "ab")
	assert.Error(t, err)
}

func TestIntegration_TreeAndCommitFlow(t *testing.T) {
	application, tmpDir := setupIntegrationEnv(t)
	ctx := context.Background()

	work := filepath.Join(tmpDir, "work")
	writeFile(t, filepath.Join(work, "hello.txt"), "hello world\n")
	writeFile(t, filepath.Join(work, "docs", "readme.md"), "# docs\n")
	writeFile(t, filepath.Join(work, "debug.log"), "noise")
	writeFile(t, filepath.Join(work, ".gvignore"), "*.log\n")

	// 1. write-tree
	out, err := runCmd(t, writeTreeCmd, work)
	require.NoError(t, err)
	treeID, err := types.FromHex(strings.TrimSpace(out))
	require.NoError(t, err)

	// 2. cat-file -p 按 git 格式列出条目
	catPretty = true
	out, err = runCmd(t, catFileCmd, treeID.String())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "100644 blob "), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "\t.gvignore"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "040000 tree "), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], "\tdocs"), lines[1])
	assert.Equal(t, "100644 blob "+helloBlob+"\thello.txt", lines[2])

	// 3. 根提交
	commitMsg, commitAuthor, commitEmail = "first", "Alice", "alice@example.com"
	out, err = runCmd(t, commitTreeCmd, treeID.String()[:8])
	require.NoError(t, err)
	first, err := types.FromHex(strings.TrimSpace(out))
	require.NoError(t, err)

	obj, err := application.Store.Get(ctx, first)
	require.NoError(t, err)
	c, err := core.ParseCommit(obj.Payload)
	require.NoError(t, err)
	assert.Equal(t, treeID, c.Tree)
	assert.Empty(t, c.Parents)
	assert.Equal(t, "Alice", c.Author.Name)
	assert.Equal(t, "first\n", c.Message)

	// 4. 带 parent 的提交
	commitMsg = "second\n"
	commitParents = []string{first.String()}
	out, err = runCmd(t, commitTreeCmd, treeID.String())
	require.NoError(t, err)
	second, err := types.FromHex(strings.TrimSpace(out))
	require.NoError(t, err)

	obj, err = application.Store.Get(ctx, second)
	require.NoError(t, err)
	c, err = core.ParseCommit(obj.Payload)
	require.NoError(t, err)
	assert.Equal(t, []types.ObjectId{first}, c.Parents)
	assert.Equal(t, "gitvault", c.Author.Name)

	// 5. 类型检查
	commitMsg = "bad"
	_, err = runCmd(t, commitTreeCmd, helloBlob)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a tree")

	_, err = runCmd(t, commitTreeCmd, treeID.String())
	assert.Error(t, err, "message required")

	// 6. checkout-tree 还原出同样的文件 (被忽略的 debug.log 不在其中)
	restoreDir := filepath.Join(tmpDir, "restore")
	out, err = runCmd(t, checkoutTreeCmd, treeID.String(), restoreDir)
	require.NoError(t, err)
	assert.Contains(t, out, "restored 3 files")

	data, err := os.ReadFile(filepath.Join(restoreDir, "docs", "readme.md"))
	require.NoError(t, err)
	assert.Equal(t, "# docs\n", string(data))
	_, err = os.Stat(filepath.Join(restoreDir, "debug.log"))
	assert.True(t, os.IsNotExist(err))

	out, err = runCmd(t, writeTreeCmd, restoreDir)
	require.NoError(t, err)
	assert.Equal(t, treeID.String()+"\n", out)
}

func TestIntegration_Fsck(t *testing.T) {
	_, tmpDir := setupIntegrationEnv(t)
	file := filepath.Join(tmpDir, "hello.txt")
	writeFile(t, file, "hello world\n")

	hashWrite = true
	_, err := runCmd(t, hashObjectCmd, file)
	require.NoError(t, err)

	out, err := runCmd(t, fsckCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "blob   1")
	assert.Contains(t, out, "checked 1 objects")

	// 篡改内容，哈希不再匹配
	objPath := filepath.Join(tmpDir, ".gv", "objects", helloBlob[:2], helloBlob[2:])
	require.NoError(t, os.WriteFile(objPath, []byte("blob 3\x00bad"), 0o644))

	out, err = runCmd(t, fsckCmd)
	assert.ErrorIs(t, err, ErrDamaged)
	assert.Contains(t, out, "corrupt "+helloBlob)

	// 读取也会拒绝坏对象
	catPretty = true
	_, err = runCmd(t, catFileCmd, helloBlob)
	assert.ErrorIs(t, err, core.ErrCorruptObject)
}

func TestIntegration_ImportGit(t *testing.T) {
	setupIntegrationEnv(t)

	src := t.TempDir()
	repo, err := git.PlainInit(src, false)
	require.NoError(t, err)
	writeFile(t, filepath.Join(src, "hello.txt"), "hello world\n")
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("hello.txt")
	require.NoError(t, err)
	sig := &object.Signature{Name: "Bob", Email: "bob@example.com", When: time.Unix(1714557600, 0).UTC()}
	head, err := wt.Commit("import me\n", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)

	out, err := runCmd(t, importGitCmd, src)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 3 objects")

	catType = true
	out, err = runCmd(t, catFileCmd, head.String())
	require.NoError(t, err)
	assert.Equal(t, "commit\n", out)
}

func TestIntegration_Init(t *testing.T) {
	t.Cleanup(viper.Reset)
	objects := filepath.Join(t.TempDir(), ".gv", "objects")
	viper.Set("storage.path", objects)

	out, err := runCmd(t, initCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized empty gitvault repository")
	info, err := os.Stat(objects)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	out, err = runCmd(t, initCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}
