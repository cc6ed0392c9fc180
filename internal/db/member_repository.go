package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/example/gymdesk/internal/models"
)

type firestoreMemberRepository struct {
	client *firestore.Client
}

// NewFirestoreMemberRepository creates a MemberRepository backed by Firestore.
func NewFirestoreMemberRepository(client *firestore.Client) MemberRepository {
	return &firestoreMemberRepository{client: client}
}

func (r *firestoreMemberRepository) doc(uid string) *firestore.DocumentRef {
	return r.client.Collection(MembersCollection).Doc(uid)
}

// Create adds a member document keyed by member.UID. It fails with
// ErrAlreadyExists if the member already has a profile.
func (r *firestoreMemberRepository) Create(ctx context.Context, member *models.Member) error {
	if member.UID == "" {
		return errEmptyID
	}
	if _, err := r.doc(member.UID).Create(ctx, member); err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("member '%s': %w", member.UID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create member '%s': %w", member.UID, err)
	}
	return nil
}

func (r *firestoreMemberRepository) GetByID(ctx context.Context, uid string) (*models.Member, error) {
	if uid == "" {
		return nil, errEmptyID
	}
	docSnap, err := r.doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("member '%s': %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get member '%s': %w", uid, err)
	}

	var member models.Member
	if err := docSnap.DataTo(&member); err != nil {
		return nil, fmt.Errorf("failed to decode member '%s': %w", uid, err)
	}
	member.UID = docSnap.Ref.ID
	return &member, nil
}

func (r *firestoreMemberRepository) List(ctx context.Context) ([]*models.Member, error) {
	iter := r.client.Collection(MembersCollection).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	members := []*models.Member{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate members: %w", err)
		}
		var member models.Member
		if err := doc.DataTo(&member); err != nil {
			return nil, fmt.Errorf("failed to decode member '%s': %w", doc.Ref.ID, err)
		}
		member.UID = doc.Ref.ID
		members = append(members, &member)
	}
	return members, nil
}

func (r *firestoreMemberRepository) Update(ctx context.Context, uid string, fields map[string]interface{}) error {
	if uid == "" {
		return errEmptyID
	}
	if len(fields) == 0 {
		return nil
	}
	return r.update(ctx, uid, toUpdates(fields))
}

func (r *firestoreMemberRepository) AddBookedClass(ctx context.Context, uid, classID string) error {
	return r.update(ctx, uid, []firestore.Update{{Path: "bookedClasses", Value: firestore.ArrayUnion(classID)}})
}

func (r *firestoreMemberRepository) RemoveBookedClass(ctx context.Context, uid, classID string) error {
	return r.update(ctx, uid, []firestore.Update{{Path: "bookedClasses", Value: firestore.ArrayRemove(classID)}})
}

func (r *firestoreMemberRepository) update(ctx context.Context, uid string, updates []firestore.Update) error {
	if _, err := r.doc(uid).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("member '%s': %w", uid, ErrNotFound)
		}
		return fmt.Errorf("failed to update member '%s': %w", uid, err)
	}
	return nil
}

// toUpdates converts a field map to Firestore updates. Keys are field
// paths, so nested fields use dots.
func toUpdates(fields map[string]interface{}) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	return updates
}
