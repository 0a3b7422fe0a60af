package users

// UsersConfig is the root structure of users.yaml
//
//	users:
//	  - id: alice
//	    name: Alice
//	    tokens: ["{{KEEPMARK_TOKEN_ALICE}}"]
type UsersConfig struct {
	Users []UserEntry `yaml:"users"`
}

// UserEntry is one account and the API tokens that authenticate it
type UserEntry struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name,omitempty"`
	Tokens []string `yaml:"tokens"`
}
