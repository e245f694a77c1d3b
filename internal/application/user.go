package app

import (
	"context"

	"vector-area/internal/domain/entity"
	"vector-area/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// BeginMeasure переводит пользователя в ожидание файла
func (s *UserService) BeginMeasure(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingDocument)
}

// StartProcessing занимает пользователя на время измерения.
// Возвращает false, если файл от него сейчас не ожидается.
func (s *UserService) StartProcessing(ctx context.Context, userID, chatID int64) (bool, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return false, err
	}
	if !user.AcceptsDocument() {
		return false, nil
	}

	user.SetState(entity.StateProcessing)
	return true, s.repo.Save(ctx, user)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
