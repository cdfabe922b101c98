package catalog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
)

// DirectoryTreeNode is a rooted tree node: {name, items-count, children} (§3).
// Insertion of path "/a/b/c" walks-or-creates each segment and increments the leaf's
// item count.
type DirectoryTreeNode struct {
	Name     string                         `json:"name"`
	Items    int                            `json:"items"`
	Children map[string]*DirectoryTreeNode  `json:"children,omitempty"`
}

// NewDirectoryTree returns an empty root node.
func NewDirectoryTree() *DirectoryTreeNode {
	return &DirectoryTreeNode{Name: "/", Children: map[string]*DirectoryTreeNode{}}
}

// Insert walks-or-creates every segment of path's parent directory and increments the
// leaf directory's item count by one.
func (n *DirectoryTreeNode) Insert(path string) {
	dir := filepath.Dir(path)
	segments := splitPath(dir)
	cur := n
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		child, ok := cur.Children[seg]
		if !ok {
			child = &DirectoryTreeNode{Name: seg, Children: map[string]*DirectoryTreeNode{}}
			cur.Children[seg] = child
		}
		cur = child
	}
	cur.Items++
}

func splitPath(p string) []string {
	p = filepath.ToSlash(p)
	return strings.Split(strings.Trim(p, "/"), "/")
}

// BuildDirectoryTree rebuilds the full tree from a list of media paths, as done at the
// end of every scan (§4.4): DirectoryTree is always rebuilt wholesale, never patched.
func BuildDirectoryTree(paths []string) *DirectoryTreeNode {
	root := NewDirectoryTree()
	for _, p := range paths {
		root.Insert(p)
	}
	return root
}

// SaveDirectoryTree serializes and upserts the tree into Kv under "directory_tree".
func (c *Catalog) SaveDirectoryTree(ctx context.Context, tree *DirectoryTreeNode) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return c.KvSet(ctx, KeyDirectoryTree, string(data))
}

// LoadDirectoryTree deserializes the tree stored in Kv, never recomputed live (§4.8).
func (c *Catalog) LoadDirectoryTree(ctx context.Context) (*DirectoryTreeNode, error) {
	raw, err := c.KvGet(ctx, KeyDirectoryTree)
	if err != nil {
		return nil, err
	}
	var tree DirectoryTreeNode
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}
