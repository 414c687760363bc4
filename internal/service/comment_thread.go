package service

import (
	"sort"

	"github.com/deskflow/helpdesk-portal/internal/domain"
)

// BuildThread arranges a flat comment list into trees. Roots and replies are
// ordered by creation time, id breaking ties. A comment whose parent is not in
// the list is promoted to a root instead of being dropped.
func BuildThread(comments []domain.Comment) []*domain.CommentNode {
	ordered := make([]domain.Comment, len(comments))
	copy(ordered, comments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	nodes := make(map[string]*domain.CommentNode, len(ordered))
	for _, c := range ordered {
		nodes[c.ID] = &domain.CommentNode{Comment: c, Replies: []*domain.CommentNode{}}
	}

	roots := make([]*domain.CommentNode, 0)
	for _, c := range ordered {
		node := nodes[c.ID]
		if c.ParentCommentID != nil && *c.ParentCommentID != c.ID {
			if parent, ok := nodes[*c.ParentCommentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// pruneInternal drops internal comments together with everything below them.
func pruneInternal(nodes []*domain.CommentNode) []*domain.CommentNode {
	kept := make([]*domain.CommentNode, 0, len(nodes))
	for _, node := range nodes {
		if node.IsInternal {
			continue
		}
		node.Replies = pruneInternal(node.Replies)
		kept = append(kept, node)
	}
	return kept
}
