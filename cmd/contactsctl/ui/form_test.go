package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAdmin(t *testing.T) {
	valid := AdminInput{Username: "root.admin", Email: "root@example.com", Password: "pw123456"}
	assert.NoError(t, ValidateAdmin(valid))

	tests := []struct {
		name  string
		input AdminInput
	}{
		{"missing username", AdminInput{Email: "root@example.com", Password: "pw123456"}},
		{"short username", AdminInput{Username: "ab", Email: "root@example.com", Password: "pw123456"}},
		{"bad username", AdminInput{Username: "root admin", Email: "root@example.com", Password: "pw123456"}},
		{"bad email", AdminInput{Username: "root", Email: "root", Password: "pw123456"}},
		{"short password", AdminInput{Username: "root", Email: "root@example.com", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateAdmin(tt.input))
		})
	}
}

func TestAdminInput_Missing(t *testing.T) {
	assert.True(t, AdminInput{Username: "root"}.Missing())
	assert.False(t, AdminInput{Username: "root", Email: "root@example.com", Password: "pw123456"}.Missing())
}
