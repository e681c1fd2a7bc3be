package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"user": {
		"test:create",
		"test:view",
		"session:create",
		"session:answer",
		"session:complete",
		"session:view-own",
		"bank:list",
	},
	"admin": {
		"*", // everything
	},
}
