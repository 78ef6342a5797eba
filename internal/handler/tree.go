package handler

import (
	"net/http"
	"sort"
	"strings"
	"time"

	mfs "github.com/CageChen/foldersync/internal/fs"
	"github.com/gin-gonic/gin"
)

// maxTreeDepth bounds how deep GetTree descends.
const maxTreeDepth = 64

// TreeNode represents a file or directory in the tree
type TreeNode struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Path      string      `json:"path,omitempty"`
	Children  []*TreeNode `json:"children,omitempty"`
	ModTime   *time.Time  `json:"modTime,omitempty"`
	Size      int64       `json:"size,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
}

// TreeHandler serves read-only listings of the source and replica trees
type TreeHandler struct {
	source  mfs.FileSystem
	replica mfs.FileSystem
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(source, replica mfs.FileSystem) *TreeHandler {
	return &TreeHandler{source: source, replica: replica}
}

// GetTree returns the directory tree of one side, selected by ?side=source|replica
func (h *TreeHandler) GetTree(c *gin.Context) {
	var tree mfs.FileSystem
	switch side := c.DefaultQuery("side", "replica"); side {
	case "source":
		tree = h.source
	case "replica":
		tree = h.replica
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "side must be source or replica",
		})
		return
	}

	node, err := buildTree(tree, "", 0)
	if err != nil {
		if mfs.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "folder does not exist: " + tree.Root(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}
	node.Name = tree.Root()
	c.JSON(http.StatusOK, node)
}

func buildTree(fs mfs.FileSystem, relativePath string, depth int) (*TreeNode, error) {
	info, err := fs.Stat(relativePath)
	if err != nil {
		return nil, err
	}

	node := &TreeNode{
		Name: info.Name,
		Path: relativePath,
	}

	if !info.IsDir {
		node.Type = "file"
		modTime := info.ModTime
		node.ModTime = &modTime
		node.Size = info.Size
		return node, nil
	}

	node.Type = "directory"
	if depth >= maxTreeDepth {
		node.Truncated = true
		return node, nil
	}
	entries, err := fs.ReadDir(relativePath)
	if err != nil {
		return nil, err
	}

	// Sort: directories first, then files, both alphabetically
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	for _, entry := range entries {
		childPath := entry.Name
		if relativePath != "" {
			childPath = relativePath + "/" + entry.Name
		}

		// Entries can vanish while a pass runs; skip them
		child, err := buildTree(fs, childPath, depth+1)
		if err != nil {
			continue
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}
