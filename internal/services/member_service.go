package services

import (
	"context"
	"fmt"
	"strings"

	"drinklog/internal/core"
	"drinklog/internal/log"
	"drinklog/internal/storage"
)

// MemberService registers and looks up members. Authentication lives outside
// this server; members here are ledger accounts.
type MemberService struct {
	store  storage.Store
	logger *log.Logger
}

func NewMemberService(store storage.Store, logger *log.Logger) *MemberService {
	return &MemberService{
		store:  store,
		logger: logger.WithComponent(log.ComponentGroup),
	}
}

func (s *MemberService) Register(ctx context.Context, email, nickname string) (*core.Member, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email required", core.ErrInvalid)
	}
	if strings.TrimSpace(nickname) == "" {
		return nil, fmt.Errorf("%w: nickname required", core.ErrInvalid)
	}

	member := &core.Member{Email: email, Nickname: nickname}
	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "member registered", log.FieldUserID, member.ID)
	return member, nil
}

func (s *MemberService) Get(ctx context.Context, id int64) (*core.Member, error) {
	return s.store.GetMember(ctx, id)
}
