package service

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/tmarlier/Castellan/internal/dto"
	"github.com/tmarlier/Castellan/internal/model"
	"github.com/tmarlier/Castellan/internal/repository"
	"gorm.io/gorm"
)

const defaultUserRating = 1200

type UserService interface {
	CreateUser(req dto.UserCreateDTO) (*dto.UserResponseDTO, error)
	GetUser(id uint) (*dto.UserResponseDTO, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(req dto.UserCreateDTO) (*dto.UserResponseDTO, error) {
	user := model.User{
		Username: req.Username,
		Rating:   defaultUserRating,
		IsGuest:  req.IsGuest,
	}
	if err := s.userRepo.Create(&user); err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to create user")
		return nil, fmt.Errorf("creating user: %w", err)
	}

	var resp dto.UserResponseDTO
	if err := copier.Copy(&resp, &user); err != nil {
		return nil, fmt.Errorf("preparing user response: %w", err)
	}
	return &resp, nil
}

func (s *userService) GetUser(id uint) (*dto.UserResponseDTO, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("fetching user %d: %w", id, err)
	}

	var resp dto.UserResponseDTO
	if err := copier.Copy(&resp, user); err != nil {
		return nil, fmt.Errorf("preparing user response: %w", err)
	}
	return &resp, nil
}
