package domain

// ReplyState mirrors the owning document's invitation record.
type ReplyState string

const (
	ReplyPending ReplyState = "pending"
	ReplyAccept  ReplyState = "accept"
	ReplyReject  ReplyState = "reject"
	ReplyCreator ReplyState = "creator"
)

// Member is one user's presence and team-role record within a room.
// No transport or lifecycle logic here.
type Member struct {
	UserID     UserID     `json:"_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Team       TeamName   `json:"team"`
	Leader     bool       `json:"leader"`
	Reply      ReplyState `json:"reply"`
	Invitor    UserID     `json:"invitor"`
	MailStatus bool       `json:"mailStatus"`
}

// NewMember keeps construction obvious in adapters and services.
func NewMember(user User, team TeamName, invitor UserID) *Member {
	return &Member{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Team:    team,
		Reply:   ReplyPending,
		Invitor: invitor,
	}
}
