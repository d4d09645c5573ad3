package model

// Relation names a user collection a handler wants preloaded alongside
// the session user. Handlers declare these at route registration instead
// of the session middleware guessing from the request path.
type Relation string

const (
	RelationImages  Relation = "Images"
	RelationPastes  Relation = "Pastes"
	RelationURLs    Relation = "URLs"
	RelationInvites Relation = "Invites"
)
