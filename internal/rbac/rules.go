package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"quiz:view",
		"attempt:submit",
		"attempt:view-own",
		"progress:view-own",
		"progress:mark",
	},
	"instructor": {
		"course:view",
		"material:create",
		"material:update",
		"material:delete",
		"quiz:view",
		"quiz:view-keys",
		"question:create",
		"question:delete",
		"asset:upload",
		"attempt:view-all",
		"progress:view-all",
	},
	"admin": {
		"*", // everything
	},
}
