package profile

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

func defaults(addresses []Address) int {
	n := 0
	for _, a := range addresses {
		if a.IsDefault {
			n++
		}
	}
	return n
}

func TestSetDefaultLeavesExactlyOne(t *testing.T) {
	t.Parallel()

	in := []Address{{ID: "1", IsDefault: false}, {ID: "2", IsDefault: true}}
	out := SetDefault(in, 0)

	require.Equal(t, []Address{{ID: "1", IsDefault: true}, {ID: "2", IsDefault: false}}, out)
	require.True(t, in[1].IsDefault, "input must not be mutated")

	several := []Address{{ID: "a", IsDefault: true}, {ID: "b", IsDefault: true}, {ID: "c"}}
	require.Equal(t, 1, defaults(SetDefault(several, 2)))
	require.True(t, SetDefault(several, 2)[2].IsDefault)
}

func TestUpsertDefaultClearsOthers(t *testing.T) {
	t.Parallel()

	existing := []Address{{ID: "1", Label: "Home", Street: "MG Road", IsDefault: true}}

	added := Upsert(existing, Address{Label: "Office", Street: "Ring Road", IsDefault: true}, -1)
	require.Len(t, added, 2)
	require.False(t, added[0].IsDefault)
	require.True(t, added[1].IsDefault)

	edited := Upsert(added, Address{Label: "Home 2", Street: "MG Road", IsDefault: true}, 0)
	require.Equal(t, "1", edited[0].ID)
	require.Equal(t, "Home 2", edited[0].Label)
	require.Equal(t, 1, defaults(edited))
	require.True(t, edited[0].IsDefault)

	plain := Upsert(existing, Address{Label: "Gym", Street: "Lake Rd"}, -1)
	require.True(t, plain[0].IsDefault)
	require.Equal(t, 1, defaults(plain))
}

func TestRemoveAtAndPreferred(t *testing.T) {
	t.Parallel()

	addresses := []Address{{ID: "1"}, {ID: "2", IsDefault: true}, {ID: "3"}}
	preferred, ok := Preferred(addresses)
	require.True(t, ok)
	require.Equal(t, "2", preferred.ID)

	remaining := RemoveAt(addresses, 1)
	require.Len(t, remaining, 2)
	preferred, ok = Preferred(remaining)
	require.True(t, ok)
	require.Equal(t, "1", preferred.ID)

	_, ok = Preferred(nil)
	require.False(t, ok)
}

func TestValidateSavedRequiresLabelAndStreet(t *testing.T) {
	t.Parallel()

	err := ValidateSaved(Address{Label: "Home"}.Normalize())
	var verr *backend.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "street")
	require.Equal(t, "Label and Street are required", backend.UserMessage(err, ""))

	require.NoError(t, ValidateSaved(Address{Label: " Home ", Street: " 1 Main "}.Normalize()))
}

func TestUpdateNormalizeStripsMarkup(t *testing.T) {
	t.Parallel()

	u := Update{Name: " Asha ", Gender: "Female", Bio: `<script>alert(1)</script>Loves <b>tea</b>`}.Normalize()
	require.Equal(t, "Asha", u.Name)
	require.Equal(t, "female", u.Gender)
	require.Equal(t, "Loves tea", u.Bio)
	require.NoError(t, u.Validate())

	require.Error(t, Update{Name: "x", Gender: "robot"}.Validate())
}

func TestHTTPServiceBodiesSelectOperation(t *testing.T) {
	t.Parallel()

	bodies := make(chan map[string]any, 8)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/profile", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		switch {
		case body["address"] != nil:
			_, _ = io.WriteString(w, `{"success":true,"address":{"_id":"a9","street":"New St","city":"Pune"}}`)
		default:
			_, _ = io.WriteString(w, `{"success":true,"data":{"_id":"u1","name":"Asha","addresses":[{"_id":"a1","street":"Old St","isDefault":true}]}}`)
		}
	}))
	t.Cleanup(ts.Close)

	client, err := backend.New(backend.Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
	require.NoError(t, err)
	svc := NewHTTPService(client)
	id := session.Identity{Token: "tok", UserID: "u1"}
	ctx := context.Background()

	p, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"userId": "u1"}, <-bodies)
	require.Len(t, p.Addresses, 1)

	added, err := svc.AddAddress(ctx, id, Address{Street: "New St", City: "Pune"})
	require.NoError(t, err)
	require.Equal(t, "a9", added.ID)
	addBody := <-bodies
	require.Contains(t, addBody, "address")
	require.NotContains(t, addBody, "addresses")

	_, err = svc.Update(ctx, id, Update{Name: "Asha R", Bio: "hi"})
	require.NoError(t, err)
	<-bodies // read before write
	updateBody := <-bodies
	require.Equal(t, "Asha R", updateBody["name"])
	require.Len(t, updateBody["addresses"], 1)

	_, err = svc.AddAddress(ctx, id, Address{City: "Pune"})
	var verr *backend.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Empty(t, bodies)
}

func TestStaticServiceAssignsIDs(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(Profile{ID: "u1", Name: "Asha"})
	id := session.Identity{Token: "tok", UserID: "u1"}
	ctx := context.Background()

	a, err := svc.AddAddress(ctx, id, Address{Street: "1 Main", City: "Delhi"})
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)

	p, err := svc.SaveAddresses(ctx, id, SetDefault([]Address{a, {Street: "2 Side"}}, 1))
	require.NoError(t, err)
	require.NotEmpty(t, p.Addresses[1].ID)
	require.Equal(t, 1, defaults(p.Addresses))

	_, err = svc.Get(ctx, session.Identity{})
	require.ErrorIs(t, err, backend.ErrUnauthorized)
}
