package schema

// AuthPrincipalTable represents the 'auth.principal' table
type AuthPrincipalTable struct {
	Table          string
	UserID         string
	CredentialHash string
	IsActive       string
	RefreshToken   string
	CreatedAt      string
	UpdatedAt      string
}

// AuthPrincipal is the schema definition for auth.principal
var AuthPrincipal = AuthPrincipalTable{
	Table:          "auth.principal",
	UserID:         "userid",
	CredentialHash: "credentialhash",
	IsActive:       "isactive",
	RefreshToken:   "refreshtoken",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}

// Columns returns all standard column names
func (t AuthPrincipalTable) Columns() []string {
	return []string{
		t.UserID, t.CredentialHash, t.IsActive, t.RefreshToken, t.CreatedAt, t.UpdatedAt,
	}
}
