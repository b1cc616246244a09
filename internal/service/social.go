package service

// Profile is the identity a social provider reports.
type Profile struct {
	Name   string
	Avatar string
	Email  string
	Role   string
}

// DefaultProviders returns the supported social providers.
func DefaultProviders() map[string]Profile {
	return map[string]Profile{
		"github": {
			Name:   "GitHub User",
			Avatar: "https://avatars.githubusercontent.com/u/1?v=4",
			Email:  "user@github.com",
			Role:   "user",
		},
		"google": {
			Name:   "Google User",
			Avatar: "https://lh3.googleusercontent.com/a/default-user",
			Email:  "user@gmail.com",
			Role:   "user",
		},
		"wechat": {
			Name:   "微信用户",
			Avatar: "https://thirdwx.qlogo.cn/mmopen/default",
			Email:  "user@wechat.com",
			Role:   "user",
		},
	}
}
