package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContact(t *testing.T) {
	db := setupTestDB(t)

	contact, err := CreateContact(db, ContactInput{
		Name:        "  Ravi ",
		Email:       " Ravi@Example.COM ",
		PhoneNumber: "9123456780",
		Message:     "<script>alert(1)</script>Call me <b>today</b>",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, contact.ID)
	assert.Equal(t, "Ravi", contact.Name)
	assert.Equal(t, "ravi@example.com", contact.Email)
	require.NotNil(t, contact.Message)
	assert.Equal(t, "Call me today", *contact.Message)
	assert.False(t, contact.SubmittedAt.IsZero())
}

func TestCreateContactWithoutMessage(t *testing.T) {
	db := setupTestDB(t)

	contact, err := CreateContact(db, ContactInput{Name: "A", Email: "a@b.co", PhoneNumber: "1"})
	require.NoError(t, err)
	assert.Nil(t, contact.Message)
}

func TestCreateContactRequiresFields(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateContact(db, ContactInput{Name: "<i></i>", Email: "a@b.co", PhoneNumber: "1"})
	assert.Error(t, err)
}
