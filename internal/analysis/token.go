package analysis

import "fmt"

// Role classifies what a token denotes.
type Role int

const (
	RoleOther Role = iota
	RoleType
	RoleVariable
	RoleParameter
	RoleFunction
	RoleImportedFunction
	RoleTypeField
	RoleImportLibrary
	RoleIntrinsicType
	RoleReturn
)

// NumRoles is the size of tables indexed by Role.
const NumRoles = int(RoleReturn) + 1

var roleNames = [NumRoles]string{
	RoleOther:            "Other",
	RoleType:             "Type",
	RoleVariable:         "Variable",
	RoleParameter:        "Parameter",
	RoleFunction:         "Function",
	RoleImportedFunction: "ImportedFunction",
	RoleTypeField:        "TypeField",
	RoleImportLibrary:    "ImportLibrary",
	RoleIntrinsicType:    "IntrinsicType",
	RoleReturn:           "Return",
}

func (r Role) String() string {
	if r < 0 || int(r) >= NumRoles {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// TokenID identifies a token within one Program.
type TokenID int

// Token is a classified lexeme with its source span.
type Token struct {
	ID     TokenID
	Lexeme string
	Span   Span
	Role   Role
}

func (t Token) String() string {
	return fmt.Sprintf("%q [%s] at %s", t.Lexeme, t.Role, t.Span.Start)
}
