// Package directory indexes a user listing for filtered lookups.
package directory

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// Directory is an immutable inverted index over a users listing. Each user
// is a document numbered by its position in the listing.
type Directory struct {
	users []client.UserRecord

	idxStatus map[string]*roaring.Bitmap
	idxRole   map[string]*roaring.Bitmap
	idxToken  map[string]*roaring.Bitmap
	active    *roaring.Bitmap
}

// New indexes users. The slice is retained and must not be modified.
func New(users []client.UserRecord) *Directory {
	d := &Directory{
		users:     users,
		idxStatus: make(map[string]*roaring.Bitmap),
		idxRole:   make(map[string]*roaring.Bitmap),
		idxToken:  make(map[string]*roaring.Bitmap),
		active:    roaring.New(),
	}

	for i := range users {
		u := &users[i]
		docID := uint32(i)

		if u.Status != "" {
			addToBitmap(d.idxStatus, strings.ToLower(u.Status), docID)
		}
		for _, role := range u.Roles {
			addToBitmap(d.idxRole, strings.ToLower(role), docID)
		}
		if u.Active {
			d.active.Add(docID)
		}

		emails := make([]string, 0, len(u.Emails))
		for _, e := range u.Emails {
			emails = append(emails, e.Address)
		}
		for _, t := range userTokens(u.Username, u.Name, emails) {
			addToBitmap(d.idxToken, t, docID)
		}
	}
	return d
}

func addToBitmap(idx map[string]*roaring.Bitmap, key string, docID uint32) {
	bm, ok := idx[key]
	if !ok {
		bm = roaring.New()
		idx[key] = bm
	}
	bm.Add(docID)
}

// Len returns the number of indexed users.
func (d *Directory) Len() int {
	return len(d.users)
}

// User returns the user with the given document id.
func (d *Directory) User(docID uint32) *client.UserRecord {
	if int(docID) >= len(d.users) {
		return nil
	}
	return &d.users[docID]
}

// all returns a bitmap of every document id.
func (d *Directory) all() *roaring.Bitmap {
	bm := roaring.New()
	if len(d.users) > 0 {
		bm.AddRange(0, uint64(len(d.users)))
	}
	return bm
}

// tokenPrefix returns the union of all token bitmaps whose token starts
// with prefix.
func (d *Directory) tokenPrefix(prefix string) *roaring.Bitmap {
	result := roaring.New()
	for token, bm := range d.idxToken {
		if strings.HasPrefix(token, prefix) {
			result.Or(bm)
		}
	}
	return result
}
