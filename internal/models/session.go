package models

// Role 当前会话的访问级别
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleAdmin     Role = "admin"
	RoleFamily    Role = "family"
)

// 持久化存储中的键名（与 Web 端 localStorage 的键一致，两端可共用同一份数据）
const (
	KeyAdminToken  = "token"
	KeyFamilyToken = "family_token"
	KeyPatientID   = "patient_id"
	KeyUserType    = "user_type" // 仅作提示，不参与角色判定
)

// Session 由两个凭证槽位推导出的会话
type Session struct {
	Role      Role   `json:"role"`
	Token     string `json:"token,omitempty"`
	PatientID string `json:"patient_id,omitempty"` // 仅家属会话
}

// Authenticated 是否持有任意凭证
// 凭证只在后端请求返回 401 时才会被发现失效，这里只看是否存在
func (s Session) Authenticated() bool {
	return s.Role != RoleAnonymous && s.Token != ""
}

// ResolveSession 按优先级 Family > Admin > Anonymous 推导会话
func ResolveSession(adminToken, familyToken, patientID string) Session {
	if familyToken != "" {
		return Session{Role: RoleFamily, Token: familyToken, PatientID: patientID}
	}
	if adminToken != "" {
		return Session{Role: RoleAdmin, Token: adminToken}
	}
	return Session{Role: RoleAnonymous}
}
