package payload

type SetGroupMembersRequest struct {
	Users []string `json:"users"`
}
