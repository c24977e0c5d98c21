package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// MediaType enumerates the catalog kinds ShowSync tracks.
type MediaType string

const (
	MediaMovie MediaType = "MOVIE"
	MediaTV    MediaType = "TV"
	MediaBook  MediaType = "BOOK"
)

// InteractionStatus mirrors the library/rating CRUD surface owned by a
// collaborator service; the recommendation core only reads it.
type InteractionStatus string

const (
	StatusWatching  InteractionStatus = "WATCHING"
	StatusCompleted InteractionStatus = "COMPLETED"
	StatusPlanToDo  InteractionStatus = "PLAN_TO_DO"
	StatusDropped   InteractionStatus = "DROPPED"
)

// Interaction is an external read-only view: a user's relationship to a
// single media item, as owned by the library/rating collaborator.
type Interaction struct {
	UserID    uuid.UUID         `db:"user_id"`
	MediaID   uuid.UUID         `db:"media_id"`
	Rating    *float64          `db:"rating"`
	Status    InteractionStatus `db:"status"`
	Progress  *float64          `db:"progress"`
	Favorite  bool              `db:"favorite"`
	UpdatedAt time.Time         `db:"updated_at"`
}

// Media is an external read-only view of catalog metadata.
type Media struct {
	ID             uuid.UUID  `db:"id"`
	Title          string     `db:"title"`
	Type           MediaType  `db:"type"`
	Genres         []string   `db:"genres"`
	Platforms      []string   `db:"platforms"`
	ReleaseDate    time.Time  `db:"release_date"`
	RuntimeMinutes *int       `db:"runtime_minutes"`
	AverageRating  *float64   `db:"average_rating"`
	RatingCount    *int       `db:"rating_count"`
}

// EraBucket buckets ReleaseDate into the era keys used by EraWeights, by
// release decade (e.g. 1990s -> "1990s").
func (m Media) EraBucket() string {
	decade := (m.ReleaseDate.Year() / 10) * 10
	return strconv.Itoa(decade) + "s"
}

// GroupVisibility gates which groups a user is eligible to see.
type GroupVisibility string

const (
	GroupPublic  GroupVisibility = "PUBLIC"
	GroupPrivate GroupVisibility = "PRIVATE"
)

// Group is an external read-only view owned by the group/chat collaborator.
type Group struct {
	ID          uuid.UUID       `db:"id"`
	Name        string          `db:"name"`
	Visibility  GroupVisibility `db:"visibility"`
	MemberCount int             `db:"member_count"`
	GenreFocus  []string        `db:"genre_focus"`
	ActivityLevel float64       `db:"activity_level"` // 0..1, recent-messages-derived
}

// GroupMembership is an external read-only view of a user's group roster.
type GroupMembership struct {
	UserID  uuid.UUID `db:"user_id"`
	GroupID uuid.UUID `db:"group_id"`
}
