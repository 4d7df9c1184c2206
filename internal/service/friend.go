package service

import (
	"context"
	"sort"
	"strings"

	"tush00nka/bbbab_chat/internal/model"
	"tush00nka/bbbab_chat/internal/repository"
)

type friendService struct {
	friendRepo repository.FriendshipRepository
	userRepo   repository.UserRepository
}

func NewFriendService(friendRepo repository.FriendshipRepository, userRepo repository.UserRepository) FriendService {
	return &friendService{friendRepo: friendRepo, userRepo: userRepo}
}

func (s *friendService) Request(ctx context.Context, requesterID, receiverID uint) (*model.Friendship, error) {
	if receiverID == 0 {
		return nil, model.NewValidationError(map[string]string{"receiverId": "is required"})
	}
	if receiverID == requesterID {
		return nil, model.NewValidationError(map[string]string{"receiverId": "cannot befriend yourself"})
	}

	if _, err := s.userRepo.FindByID(ctx, receiverID); err != nil {
		return nil, err
	}

	exists, err := s.friendRepo.ExistsBetween(ctx, requesterID, receiverID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrFriendshipExists
	}

	// The pair key index still rejects a concurrent request that slipped
	// past the check above.
	f := &model.Friendship{RequesterID: requesterID, ReceiverID: receiverID}
	if err := s.friendRepo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *friendService) Respond(ctx context.Context, receiverID, friendshipID uint, status string) (*model.Friendship, error) {
	fields := map[string]string{}
	if friendshipID == 0 {
		fields["friendshipId"] = "is required"
	}
	st := model.FriendshipStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Terminal() {
		fields["status"] = "must be ACCEPTED or DECLINED"
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	f, err := s.friendRepo.Respond(ctx, friendshipID, receiverID, st)
	if err != nil {
		return nil, err
	}
	sanitize(f.Requester)
	sanitize(f.Receiver)
	return f, nil
}

func (s *friendService) Pending(ctx context.Context, userID uint) ([]model.Friendship, error) {
	pending, err := s.friendRepo.ListPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range pending {
		sanitize(pending[i].Requester)
	}
	if pending == nil {
		pending = []model.Friendship{}
	}
	return pending, nil
}

func (s *friendService) Friends(ctx context.Context, userID uint) ([]model.FriendSummary, error) {
	accepted, err := s.friendRepo.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.FriendSummary, 0, len(accepted))
	for i := range accepted {
		other := accepted[i].Other(userID)
		if other == nil {
			continue
		}
		out = append(out, model.FriendSummary{
			UserSummary:  other.Summary(),
			FriendshipID: accepted[i].ID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func sanitize(u *model.User) {
	if u != nil {
		u.SanitizePassword()
	}
}
