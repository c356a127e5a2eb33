package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitvault/pkg/types"
)

// Signature 是 author / committer 行
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// String formats "Name <email> <unix seconds> <+hhmm>".
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format("-0700"))
}

func parseSignature(line string) (Signature, error) {
	open := strings.LastIndexByte(line, '<')
	closeIdx := strings.LastIndexByte(line, '>')
	if open == -1 || closeIdx < open {
		return Signature{}, fmt.Errorf("signature %q has no email", line)
	}

	fields := strings.Fields(line[closeIdx+1:])
	if len(fields) != 2 {
		return Signature{}, fmt.Errorf("signature %q has no timestamp", line)
	}
	unix, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("signature timestamp %q: %w", fields[0], err)
	}
	zone, err := time.Parse("-0700", fields[1])
	if err != nil {
		return Signature{}, fmt.Errorf("signature timezone %q: %w", fields[1], err)
	}

	return Signature{
		Name:  strings.TrimSpace(line[:open]),
		Email: line[open+1 : closeIdx],
		When:  time.Unix(unix, 0).In(zone.Location()),
	}, nil
}

type Commit struct {
	Tree      types.ObjectId
	Parents   []types.ObjectId
	Author    Signature
	Committer Signature
	Message   string
}

// NewCommit 创建提交；committer 默认与 author 相同
func NewCommit(tree types.ObjectId, parents []types.ObjectId, author Signature, msg string) (*Commit, error) {
	if tree.IsZero() {
		return nil, fmt.Errorf("commit requires a tree")
	}
	if author.Name == "" {
		return nil, fmt.Errorf("commit requires an author name")
	}
	if strings.ContainsAny(author.Name+author.Email, "<>\n") {
		return nil, fmt.Errorf("author %q contains reserved characters", author.Name)
	}
	return &Commit{
		Tree:      tree,
		Parents:   parents,
		Author:    author,
		Committer: author,
		Message:   msg,
	}, nil
}

func (c *Commit) Payload() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

func (c *Commit) Object() *Object {
	return &Object{Kind: KindCommit, Payload: c.Payload()}
}

// ParseCommit decodes a commit payload. Unknown headers (gpgsig, encoding) are skipped.
func ParseCommit(payload []byte) (*Commit, error) {
	headerEnd := bytes.Index(payload, []byte("\n\n"))
	if headerEnd == -1 {
		return nil, fmt.Errorf("%w: commit has no message separator", ErrMalformedObject)
	}

	c := &Commit{Message: string(payload[headerEnd+2:])}
	var hasTree bool

	for _, line := range strings.Split(string(payload[:headerEnd]), "\n") {
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		var err error
		switch key {
		case "tree":
			c.Tree, err = types.FromHex(value)
			hasTree = true
		case "parent":
			var p types.ObjectId
			p, err = types.FromHex(value)
			c.Parents = append(c.Parents, p)
		case "author":
			c.Author, err = parseSignature(value)
		case "committer":
			c.Committer, err = parseSignature(value)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: commit %s line: %v", ErrMalformedObject, key, err)
		}
	}

	if !hasTree {
		return nil, fmt.Errorf("%w: commit has no tree", ErrMalformedObject)
	}
	return c, nil
}
