// Пакет rbac — роли пользователей портала.
// Роль приходит от внешнего IdP: claim role или, если его нет,
// группы IdP, названные так же, как роли (Keycloak отдаёт их с "/").
// Роль не влияет на доступ к страницам: она передаётся внешнему API
// в заголовке x-user-role, где и принимается решение.
package rbac

import "strings"

// Роли в порядке возрастания привилегий.
const (
	RoleUser     = "user"
	RoleReceiver = "receiver"
	RoleRecycler = "recycler"
	RoleAdmin    = "admin"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleUser:     1,
	RoleReceiver: 2,
	RoleRecycler: 3,
	RoleAdmin:    4,
}

// maxRole возвращает роль с максимальными привилегиями из двух.
func maxRole(a, b string) string {
	wa := roleWeight[a]
	wb := roleWeight[b]
	if wa >= wb {
		return a
	}
	return b
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает пустую строку.
func HighestRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	highest := roles[0]
	for _, r := range roles[1:] {
		highest = maxRole(highest, r)
	}
	return highest
}

// MapGroupsToRole определяет роль по группам IdP.
// Группа "/receivers" и "receiver" дают роль receiver; неизвестные
// группы пропускаются. Если ни одна группа не совпала — пустая строка.
func MapGroupsToRole(groups []string) string {
	var roles []string
	for _, g := range groups {
		name := strings.ToLower(strings.TrimPrefix(g, "/"))
		if IsValidRole(name) {
			roles = append(roles, name)
			continue
		}
		if singular := strings.TrimSuffix(name, "s"); IsValidRole(singular) {
			roles = append(roles, singular)
		}
	}
	return HighestRole(roles)
}

// ResolveRole возвращает роль из claim role, иначе — из групп.
// Значение claim передаётся как есть: набор ролей определяет внешний API.
func ResolveRole(claim string, groups []string) string {
	if claim = strings.TrimSpace(claim); claim != "" {
		return claim
	}
	return MapGroupsToRole(groups)
}

// IsValidRole проверяет, является ли строка известной ролью портала.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}
