package db

import (
	"context"
	"time"

	"gorm.io/gorm"
)

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").Order("date_posted DESC").Order("id DESC")
}

func (s *Store) GetPost(ctx context.Context, id uint) (*Post, error) {
	var post Post
	err := s.db.WithContext(ctx).Preload("Author").First(&post, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// ListPosts returns one page of all posts, newest first.
func (s *Store) ListPosts(ctx context.Context, page, perPage int) (*Page[Post], error) {
	return paginate[Post](s.db.WithContext(ctx), page, perPage, newestFirst)
}

// ListPostsByAuthor returns one page of the posts written by userID, newest
// first.
func (s *Store) ListPostsByAuthor(ctx context.Context, userID uint, page, perPage int) (*Page[Post], error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	return paginate[Post](q, page, perPage, newestFirst)
}

// CreatePost stamps DatePosted and inserts the post. post.UserID must
// already be set.
func (s *Store) CreatePost(ctx context.Context, post *Post) error {
	if err := post.validate(); err != nil {
		return err
	}
	post.DatePosted = time.Now().UTC()
	return s.db.WithContext(ctx).Omit("Author").Create(post).Error
}

// UpdatePost writes the post's title and content. Author and DatePosted are
// never touched.
func (s *Store) UpdatePost(ctx context.Context, post *Post) error {
	if err := post.validate(); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Model(&Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"title":   post.Title,
			"content": post.Content,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
