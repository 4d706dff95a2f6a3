package guard

import (
	"path"
	"strings"

	"siacom-console/internal/models"
)

// 视图路径
const (
	PathRoot            = "/"
	PathHome            = "/home"
	PathLogin           = "/login"
	PathFamilyLogin     = "/family/login"
	PathFamilyDashboard = "/family/dashboard"
	PathDashboard       = "/dashboard"
	PathPacientes       = "/pacientes"
	PathCirugias        = "/cirugias"
	PathContactos       = "/contactos"
	PathEvolucion       = "/evolucion"

	familyNamespace = "/family/"
)

// ViewSet 某一角色可访问的视图集合
type ViewSet struct {
	Name  string
	Entry string // 角色切换后导航到的视图

	paths    map[string]bool
	prefixes []string
	root     string // "/" 的重定向目标
	fallback string // 其它路径的重定向目标
}

var (
	PublicViews = ViewSet{
		Name:     "public",
		Entry:    PathLogin,
		paths:    set(PathHome, PathLogin, PathFamilyLogin),
		root:     PathHome,
		fallback: PathLogin,
	}
	FamilyViews = ViewSet{
		Name:     "family",
		Entry:    PathFamilyDashboard,
		paths:    set(PathFamilyDashboard, PathFamilyLogin, PathHome),
		prefixes: []string{familyNamespace},
		root:     PathFamilyDashboard,
		fallback: PathFamilyDashboard,
	}
	AdminViews = ViewSet{
		Name:     "admin",
		Entry:    PathDashboard,
		paths:    set(PathDashboard, PathPacientes, PathCirugias, PathContactos, PathEvolucion, PathHome),
		root:     PathDashboard,
		fallback: PathDashboard,
	}
)

func set(paths ...string) map[string]bool {
	m := make(map[string]bool, len(paths))
	for _, p := range paths {
		m[p] = true
	}
	return m
}

// ViewsFor 角色对应的视图集合
func ViewsFor(role models.Role) ViewSet {
	switch role {
	case models.RoleFamily:
		return FamilyViews
	case models.RoleAdmin:
		return AdminViews
	default:
		return PublicViews
	}
}

// Allows 路径是否属于该视图集合
func (v ViewSet) Allows(p string) bool {
	p = normalize(p)
	if v.paths[p] {
		return true
	}
	for _, prefix := range v.prefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// Decision 一次导航的判定结果
type Decision struct {
	Path       string `json:"path"`
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirect_to,omitempty"`
	View       string `json:"view"`
}

// ResolvePath 纯函数：给定角色与目标路径，决定放行或重定向
func ResolvePath(role models.Role, target string) Decision {
	views := ViewsFor(role)
	p := normalize(target)

	d := Decision{Path: p, View: views.Name}
	switch {
	case p == PathRoot:
		d.RedirectTo = views.root
	case views.Allows(p):
		d.Allowed = true
	default:
		d.RedirectTo = views.fallback
	}
	return d
}

// normalize 去掉查询串与片段，清理多余的斜杠
func normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return PathRoot
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
