package domain

type Role string

const (
	RoleInventoryManager Role = "库存管理员"
)

// User 可以登录系统的用户，目前只有配置文件中的初始管理员
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
}
