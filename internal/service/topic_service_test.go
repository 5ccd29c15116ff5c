package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicService(t *testing.T) {
	ctx := context.Background()

	t.Run("create validates and trims", func(t *testing.T) {
		e := newEnv(t)
		topic, err := e.topicSvc.Create(ctx, "  Languages  ", nil)
		require.NoError(t, err)
		assert.Equal(t, "Languages", topic.Name)
		assert.Equal(t, t0, topic.CreatedAt)

		_, err = e.topicSvc.Create(ctx, "   ", nil)
		assert.ErrorIs(t, err, domain.ErrTopicNameEmpty)
	})

	t.Run("create under missing parent is a conflict", func(t *testing.T) {
		e := newEnv(t)
		ghost := uuid.New()
		_, err := e.topicSvc.Create(ctx, "Orphan", &ghost)
		assert.ErrorIs(t, err, store.ErrTopicMissing)
		assert.True(t, service.IsServiceError(err))
	})

	t.Run("rename", func(t *testing.T) {
		e := newEnv(t)
		topic := e.topic(t, "Old", nil)

		renamed, err := e.topicSvc.Rename(ctx, topic.ID, "New")
		require.NoError(t, err)
		assert.Equal(t, "New", renamed.Name)

		got, err := e.topicSvc.Get(ctx, topic.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Name)

		_, err = e.topicSvc.Rename(ctx, topic.ID, "")
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = e.topicSvc.Rename(ctx, uuid.New(), "x")
		assert.ErrorIs(t, err, store.ErrTopicNotFound)
	})

	t.Run("reparent rejects cycles", func(t *testing.T) {
		e := newEnv(t)
		root := e.topic(t, "Root", nil)
		child := e.topic(t, "Child", root)
		grandchild := e.topic(t, "Grandchild", child)

		_, err := e.topicSvc.Reparent(ctx, root.ID, &grandchild.ID)
		assert.ErrorIs(t, err, store.ErrTopicCycle)
		assert.True(t, store.IsConflictError(err))

		_, err = e.topicSvc.Reparent(ctx, root.ID, &root.ID)
		assert.ErrorIs(t, err, store.ErrTopicCycle)

		ghost := uuid.New()
		_, err = e.topicSvc.Reparent(ctx, child.ID, &ghost)
		assert.ErrorIs(t, err, store.ErrTopicMissing)

		moved, err := e.topicSvc.Reparent(ctx, grandchild.ID, nil)
		require.NoError(t, err)
		assert.True(t, moved.IsRoot())

		moved, err = e.topicSvc.Reparent(ctx, root.ID, &grandchild.ID)
		require.NoError(t, err)
		assert.Equal(t, grandchild.ID, *moved.ParentID)
	})

	t.Run("delete", func(t *testing.T) {
		e := newEnv(t)
		root := e.topic(t, "Root", nil)
		child := e.topic(t, "Child", root)
		e.card(t, child, "q")

		assert.ErrorIs(t, e.topicSvc.Delete(ctx, root.ID), store.ErrTopicNotEmpty)
		assert.ErrorIs(t, e.topicSvc.Delete(ctx, child.ID), store.ErrTopicNotEmpty)
		assert.ErrorIs(t, e.topicSvc.Delete(ctx, uuid.New()), store.ErrTopicNotFound)

		empty := e.topic(t, "Empty", root)
		require.NoError(t, e.topicSvc.Delete(ctx, empty.ID))
	})

	t.Run("tree", func(t *testing.T) {
		e := newEnv(t)
		lang := e.topic(t, "Languages", nil)
		e.topic(t, "Rust", lang)
		e.topic(t, "Go", lang)
		e.topic(t, "Music", nil)

		tree, err := e.topicSvc.Tree(ctx)
		require.NoError(t, err)
		require.Len(t, tree, 2)
		assert.Equal(t, "Languages", tree[0].Topic.Name)
		assert.Equal(t, "Music", tree[1].Topic.Name)
		require.Len(t, tree[0].Children, 2)
		assert.Equal(t, "Go", tree[0].Children[0].Topic.Name)
		assert.Equal(t, "Rust", tree[0].Children[1].Topic.Name)
		assert.Empty(t, tree[1].Children)
	})

	t.Run("ensure path creates missing segments once", func(t *testing.T) {
		e := newEnv(t)
		leaf, err := e.topicSvc.EnsurePath(ctx, "Lang / Go/Generics")
		require.NoError(t, err)
		assert.Equal(t, "Generics", leaf.Name)

		again, err := e.topicSvc.EnsurePath(ctx, "lang/go/generics")
		require.NoError(t, err)
		assert.Equal(t, leaf.ID, again.ID)

		sibling, err := e.topicSvc.EnsurePath(ctx, "Lang/Rust")
		require.NoError(t, err)
		go1, err := e.topicSvc.Get(ctx, *leaf.ParentID)
		require.NoError(t, err)
		assert.Equal(t, *go1.ParentID, *sibling.ParentID)

		topics, err := e.topicSvc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, topics, 4)

		_, err = e.topicSvc.EnsurePath(ctx, " / ")
		assert.ErrorIs(t, err, service.ErrEmptyTopicPath)
	})
}

func TestSplitTopicPath(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, service.SplitTopicPath("A/B/C"))
	assert.Equal(t, []string{"A", "B"}, service.SplitTopicPath(" A // B / "))
	assert.Empty(t, service.SplitTopicPath(""))
}
