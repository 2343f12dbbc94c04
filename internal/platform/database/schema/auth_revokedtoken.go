package schema

// AuthRevokedTokenTable represents the 'auth.revokedtoken' table
type AuthRevokedTokenTable struct {
	Table     string
	ID        string
	Token     string
	RevokedAt string
}

// AuthRevokedToken is the schema definition for auth.revokedtoken
var AuthRevokedToken = AuthRevokedTokenTable{
	Table:     "auth.revokedtoken",
	ID:        "id",
	Token:     "token",
	RevokedAt: "revokedat",
}

// Columns returns all standard column names
func (t AuthRevokedTokenTable) Columns() []string {
	return []string{
		t.ID, t.Token, t.RevokedAt,
	}
}
