// TrustGuardianHub | 2026
// repository_test.go

package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestBuildUpdateEmptyPatch(t *testing.T) {
	setClause, args := buildUpdate(ProfilePatch{})
	assert.Empty(t, setClause)
	assert.Nil(t, args)
}

func TestBuildUpdateSingleField(t *testing.T) {
	setClause, args := buildUpdate(ProfilePatch{Bio: strPtr("hello")})

	assert.Equal(t, "bio = $1, updated_at = NOW()", setClause)
	assert.Equal(t, []any{"hello"}, args)
}

func TestBuildUpdateOrdersParamsByField(t *testing.T) {
	setClause, args := buildUpdate(ProfilePatch{
		Username:     strPtr("newname"),
		Location:     strPtr("Nairobi"),
		ProfileImage: strPtr("profile_image-abc.png"),
	})

	assert.Equal(
		t,
		"username = $1, location = $2, profile_url = $3, updated_at = NOW()",
		setClause,
	)
	assert.Equal(
		t,
		[]any{"newname", "Nairobi", "profile_image-abc.png"},
		args,
	)
}

func TestBuildUpdateAllFields(t *testing.T) {
	setClause, args := buildUpdate(ProfilePatch{
		Username:     strPtr("a"),
		Email:        strPtr("b@example.com"),
		Bio:          strPtr("c"),
		Location:     strPtr("d"),
		ProfileImage: strPtr("e.png"),
		CoverImage:   strPtr("f.png"),
	})

	assert.Len(t, args, 6)
	assert.Contains(t, setClause, "cover_url = $6")
}

func TestProfilePatchIsEmpty(t *testing.T) {
	assert.True(t, ProfilePatch{}.IsEmpty())
	assert.False(t, ProfilePatch{Bio: strPtr("")}.IsEmpty())
}

func TestListUsersParamsNormalize(t *testing.T) {
	p := ListUsersParams{Page: -1, PageSize: 0}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = ListUsersParams{Page: 3, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 200, p.Offset())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `back\\slash`, escapeLike(`back\slash`))
}

func TestValidTier(t *testing.T) {
	assert.True(t, ValidTier(TierFree))
	assert.True(t, ValidTier(TierPremium))
	assert.False(t, ValidTier("GOLD"))
	assert.False(t, ValidTier("free"))
}

func TestFullName(t *testing.T) {
	u := User{FirstName: "Jane", LastName: "Mwangi"}
	assert.Equal(t, "Jane Mwangi", u.FullName())

	u = User{FirstName: "Cher"}
	assert.Equal(t, "Cher", u.FullName())
}
