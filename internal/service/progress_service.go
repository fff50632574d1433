package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/repository"
	"nihongo_edu_backend/internal/util"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressService owns per-user, per-lesson completion state. All writes to
// a (user, lesson) progress row run inside a transaction keyed by the row's
// unique index, which keeps percentage and completed_at linearizable under
// concurrent updates.
type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	LessonRepo   *repository.LessonRepository
	AnswerRepo   *repository.AnswerRepository
	DB           *gorm.DB
	Cache        *ReportCache
}

func NewProgressService(
	progressRepo *repository.ProgressRepository,
	lessonRepo *repository.LessonRepository,
	answerRepo *repository.AnswerRepository,
	db *gorm.DB,
	cache *ReportCache,
) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		LessonRepo:   lessonRepo,
		AnswerRepo:   answerRepo,
		DB:           db,
		Cache:        cache,
	}
}

// GetOrCreate returns the progress row for (user, lesson), creating it on
// first access. Two concurrent first requests converge on one row: the
// loser of the insert race re-reads instead of erroring.
func (s *ProgressService) GetOrCreate(userID uint, lessonID string) (*model.LessonProgress, error) {
	if _, err := s.LessonRepo.FindByID(lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lesson %s", util.ErrNotFound, lessonID)
		}
		return nil, err
	}

	progress, err := s.ProgressRepo.FindByUserAndLesson(userID, lessonID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = &model.LessonProgress{
		UserID:          userID,
		LessonID:        lessonID,
		ContentProgress: datatypes.JSONMap{},
	}
	if createErr := s.ProgressRepo.Create(progress); createErr != nil {
		// Unique-constraint race with a concurrent first request.
		if existing, findErr := s.ProgressRepo.FindByUserAndLesson(userID, lessonID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: create progress row: %v", util.ErrPersistence, createErr)
	}
	return progress, nil
}

// MarkComplete records one content item as done and recomputes the lesson
// percentage in the same transaction.
func (s *ProgressService) MarkComplete(ctx context.Context, userID uint, lessonID, contentID string, timeSpentDelta int) (*model.LessonProgress, error) {
	if _, err := s.LessonRepo.FindContent(lessonID, contentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: content %s in lesson %s", util.ErrNotFound, contentID, lessonID)
		}
		return nil, err
	}

	// Ensures the row exists; the snapshot itself is discarded below.
	if _, err := s.GetOrCreate(userID, lessonID); err != nil {
		return nil, err
	}

	total, err := s.LessonRepo.CountContents(lessonID)
	if err != nil {
		return nil, err
	}

	var progress *model.LessonProgress
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Locked re-read: concurrent completions of different content items
		// must each see the other's ContentProgress entries.
		row, err := s.ProgressRepo.FindByUserAndLessonLocked(tx, userID, lessonID)
		if err != nil {
			return err
		}
		if row.ContentProgress == nil {
			row.ContentProgress = datatypes.JSONMap{}
		}
		row.ContentProgress[contentID] = true
		if timeSpentDelta > 0 {
			row.TimeSpent += timeSpentDelta
		}
		recompute(row, int(total))
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		progress = row
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: update progress: %v", util.ErrPersistence, err)
	}

	s.Cache.Invalidate(ctx, userID)
	return progress, nil
}

// AddTime bumps the monotonic time accumulator without touching completion.
func (s *ProgressService) AddTime(userID uint, lessonID string, seconds int) (*model.LessonProgress, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("%w: time delta must be positive", util.ErrValidation)
	}
	progress, err := s.GetOrCreate(userID, lessonID)
	if err != nil {
		return nil, err
	}
	progress.TimeSpent += seconds
	if err := s.ProgressRepo.Save(progress); err != nil {
		return nil, fmt.Errorf("%w: update time spent: %v", util.ErrPersistence, err)
	}
	return progress, nil
}

// recompute applies the percentage/completion invariants:
// percentage = floor(100 * done / total), an empty lesson counts as 100,
// and completed_at is stamped only on the transition to 100.
func recompute(p *model.LessonProgress, totalContents int) {
	pct := 100
	if totalContents > 0 {
		pct = p.CompletedCount() * 100 / totalContents
		if pct > 100 {
			pct = 100
		}
	}
	p.ProgressPercentage = pct

	if pct == 100 {
		if !p.IsCompleted {
			p.IsCompleted = true
			now := time.Now()
			p.CompletedAt = &now
		}
	} else {
		p.IsCompleted = false
		p.CompletedAt = nil
	}
}

// Reset clears the progress row and deletes the user's answers to every
// question in this lesson, in one transaction.
func (s *ProgressService) Reset(ctx context.Context, userID uint, lessonID string) (*model.LessonProgress, error) {
	progress, err := s.GetOrCreate(userID, lessonID)
	if err != nil {
		return nil, err
	}

	questionIDs, err := s.LessonRepo.QuestionIDs(lessonID)
	if err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.AnswerRepo.DeleteForQuestions(tx, userID, questionIDs); err != nil {
			return err
		}
		progress.ContentProgress = datatypes.JSONMap{}
		progress.ProgressPercentage = 0
		progress.IsCompleted = false
		progress.CompletedAt = nil
		progress.TimeSpent = 0
		return tx.Save(progress).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reset progress: %v", util.ErrPersistence, err)
	}

	s.Cache.Invalidate(ctx, userID)
	return progress, nil
}

// ListForUser returns every progress row the user has, lessons preloaded.
func (s *ProgressService) ListForUser(userID uint) ([]model.LessonProgress, error) {
	return s.ProgressRepo.ListByUser(userID)
}
