package user

// Preferences is the accessibility profile stored as JSONB. Elderly
// users mostly tweak the font size, so the zero value leans large-ish.
type Preferences struct {
	FontSize string `json:"fontSize"`
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

func DefaultPreferences() Preferences {
	return Preferences{FontSize: "medium", Theme: "light", Language: "zh"}
}

type User struct {
	ID          int         `json:"id"`
	Username    string      `json:"username"`
	Nickname    string      `json:"nickname"`
	Password    string      `json:"-"`
	Avatar      string      `json:"avatar"`
	IsAdmin     bool        `json:"isAdmin"`
	Preferences Preferences `json:"preferences"`
	Streak      int         `json:"streak"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateRequest carries a partial profile update; nil fields are left
// untouched.
type UpdateRequest struct {
	Nickname    *string      `json:"nickname"`
	Avatar      *string      `json:"avatar"`
	Preferences *Preferences `json:"preferences"`
	Streak      *int         `json:"streak"`
}
