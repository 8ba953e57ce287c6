// Package authz decides whether an actor may perform an action on a resource.
//
// Rules are kept in a single table so they can be reviewed and tested
// without the HTTP layer. The admin flag is carried on the Actor but no rule
// consults it: admins have the same rights as any other user.
package authz

import "errors"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Action string

const (
	ListingList      Action = "listing.list"
	ListingView      Action = "listing.view"
	ListingCreate    Action = "listing.create"
	ListingEdit      Action = "listing.edit"
	ListingUpdate    Action = "listing.update"
	ListingSetStatus Action = "listing.set_status"
	ListingDelete    Action = "listing.delete"
	MessageInbox     Action = "message.inbox"
	MessageCreate    Action = "message.create"
	MessageView      Action = "message.view"
	MessageReply     Action = "message.reply"
)

// Actor is the identity performing a request. The zero value is anonymous.
type Actor struct {
	UserID  uint64
	IsAdmin bool
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// Resource describes who owns or takes part in the target of an action.
type Resource struct {
	OwnerID      uint64
	Participants []uint64
}

func ListingResource(ownerID uint64) Resource {
	return Resource{OwnerID: ownerID}
}

func MessageResource(fromUserID, toUserID uint64) Resource {
	return Resource{OwnerID: fromUserID, Participants: []uint64{fromUserID, toUserID}}
}

type rule func(Actor, Resource) bool

func public(Actor, Resource) bool { return true }

func authenticated(a Actor, _ Resource) bool { return a.Authenticated() }

func owner(a Actor, r Resource) bool {
	return a.Authenticated() && r.OwnerID == a.UserID
}

func participant(a Actor, r Resource) bool {
	if !a.Authenticated() {
		return false
	}
	for _, id := range r.Participants {
		if id == a.UserID {
			return true
		}
	}
	return false
}

var rules = map[Action]rule{
	ListingList:      public,
	ListingView:      public,
	ListingCreate:    authenticated,
	ListingEdit:      owner,
	ListingUpdate:    owner,
	ListingSetStatus: owner,
	ListingDelete:    owner,
	MessageInbox:     authenticated,
	MessageCreate:    authenticated,
	MessageView:      participant,
	MessageReply:     participant,
}

// Allow reports whether actor may perform action on res. Unknown actions are denied.
func Allow(actor Actor, action Action, res Resource) bool {
	r, ok := rules[action]
	if !ok {
		return false
	}
	return r(actor, res)
}

// Check is Allow as an error: ErrUnauthenticated for an anonymous actor on a
// non-public action, ErrForbidden otherwise.
func Check(actor Actor, action Action, res Resource) error {
	if Allow(actor, action, res) {
		return nil
	}
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
