package services

import (
	"context"
	"fmt"
	"strings"

	"drinklog/internal/core"
	"drinklog/internal/log"
	"drinklog/internal/storage"
)

// GroupService manages the group registry: groups, their leaders and their
// rosters. Roster changes do not touch existing entries; splits always read
// the roster at entry-creation time.
type GroupService struct {
	store  storage.Store
	logger *log.Logger
}

func NewGroupService(store storage.Store, logger *log.Logger) *GroupService {
	return &GroupService{
		store:  store,
		logger: logger.WithComponent(log.ComponentGroup),
	}
}

// GroupWithMembers pairs a group with its roster.
type GroupWithMembers struct {
	core.Group
	Members []core.Member
}

// Create registers a new group. The leader joins the roster immediately.
func (s *GroupService) Create(ctx context.Context, leaderID int64, name, description string) (*core.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name required", core.ErrInvalid)
	}

	group := &core.Group{LeaderID: leaderID, Name: name, Description: description}
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetMember(ctx, leaderID); err != nil {
			return err
		}
		if err := tx.CreateGroup(ctx, group); err != nil {
			return err
		}
		return tx.AddGroupMember(ctx, group.ID, leaderID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "group created",
		log.FieldGroupID, group.ID,
		log.FieldUserID, leaderID,
	)
	return group, nil
}

// Get returns a group with its roster.
func (s *GroupService) Get(ctx context.Context, groupID int64) (*GroupWithMembers, error) {
	var out *GroupWithMembers
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		ids, err := tx.GroupMemberIDs(ctx, groupID)
		if err != nil {
			return err
		}

		members := make([]core.Member, 0, len(ids))
		for _, id := range ids {
			member, err := tx.GetMember(ctx, id)
			if err != nil {
				return err
			}
			members = append(members, *member)
		}
		out = &GroupWithMembers{Group: *group, Members: members}
		return nil
	})
	return out, err
}

// Update changes a group's name and description. Only the leader may do this.
func (s *GroupService) Update(ctx context.Context, groupID, callerID int64, name, description string) (*core.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name required", core.ErrInvalid)
	}

	var out *core.Group
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.LeaderID != callerID {
			return fmt.Errorf("%w: only the leader can update the group", core.ErrUnauthorized)
		}

		group.Name = name
		group.Description = description
		if err := tx.UpdateGroup(ctx, group); err != nil {
			return err
		}
		out = group
		return nil
	})
	return out, err
}

// Delete removes a group and its roster. Only the leader may do this.
// Entries booked against the group keep their rows and ledger effects.
func (s *GroupService) Delete(ctx context.Context, groupID, callerID int64) error {
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.LeaderID != callerID {
			return fmt.Errorf("%w: only the leader can delete the group", core.ErrUnauthorized)
		}
		return tx.DeleteGroup(ctx, groupID)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "group deleted", log.FieldGroupID, groupID)
	return nil
}

// AddMember puts a member on a group's roster. The group and the member must
// both exist; joining twice is invalid.
func (s *GroupService) AddMember(ctx context.Context, groupID, memberID int64) error {
	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if _, err := tx.GetMember(ctx, memberID); err != nil {
			return err
		}

		already, err := tx.IsGroupMember(ctx, groupID, memberID)
		if err != nil {
			return err
		}
		if already {
			return fmt.Errorf("%w: member %d already in group %d", core.ErrInvalid, memberID, groupID)
		}
		return tx.AddGroupMember(ctx, groupID, memberID)
	})
}

// RemoveMember takes a member off a group's roster. Only the leader may
// remove members; removing someone not on the roster is a not-found error.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, memberID, callerID int64) error {
	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.LeaderID != callerID {
			return fmt.Errorf("%w: only the leader can remove members", core.ErrUnauthorized)
		}
		return tx.RemoveGroupMember(ctx, groupID, memberID)
	})
}
