package guard

import "strings"

// Well-known navigation targets.
const (
	LoginPath          = "/login"
	DefaultLandingPath = "/dashboard"
)

// Route is one entry of the declarative routing table. Path segments
// starting with ':' match any single segment.
type Route struct {
	Path          string
	Name          string
	RequiresAuth  bool
	RequiresAdmin bool

	// Roles restricts the route to profiles carrying at least one of the
	// named roles, on top of RequiresAuth.
	Roles []string
}

// Roles recognised by role-restricted routes.
const (
	roleAdmin                    = "admin"
	roleCommitteeSecretary       = "committee_secretary"
	roleDeputyCommitteeSecretary = "deputy_committee_secretary"
)

// Routes mirrors the application's page structure: public entry pages,
// the authenticated dashboard tree, and the admin console.
var Routes = []Route{
	{Path: "/", Name: "Root"},
	{Path: "/login", Name: "Login"},
	{Path: "/register", Name: "Register"},
	{Path: "/forgot-password", Name: "ForgotPassword"},

	{Path: "/dashboard", Name: "Dashboard", RequiresAuth: true},
	{Path: "/dashboard/profile", Name: "Profile", RequiresAuth: true},
	{Path: "/dashboard/settings", Name: "Settings", RequiresAuth: true},
	{Path: "/dashboard/activities", Name: "Activities", RequiresAuth: true},
	{Path: "/dashboard/activities/:id", Name: "ActivityDetail", RequiresAuth: true},
	{Path: "/dashboard/branch-activities", Name: "BranchActivities", RequiresAuth: true},
	{Path: "/dashboard/evaluations", Name: "Evaluations", RequiresAuth: true},
	{Path: "/dashboard/evaluations/:id", Name: "EvaluationDetail", RequiresAuth: true},
	{Path: "/dashboard/register", Name: "AnnualRegister", RequiresAuth: true},
	{Path: "/dashboard/member-register/approve", Name: "RegisterApprove", RequiresAuth: true,
		Roles: []string{roleAdmin, roleCommitteeSecretary, roleDeputyCommitteeSecretary}},
	{Path: "/dashboard/volunteer-services", Name: "VolunteerServices", RequiresAuth: true},
	{Path: "/dashboard/honor-apply", Name: "HonorApply", RequiresAuth: true},
	{Path: "/dashboard/my-honors", Name: "MyHonors", RequiresAuth: true},
	{Path: "/dashboard/honor-approval", Name: "HonorApproval", RequiresAuth: true,
		Roles: []string{roleCommitteeSecretary, roleDeputyCommitteeSecretary}},
	{Path: "/dashboard/notifications", Name: "Notifications", RequiresAuth: true},
	{Path: "/dashboard/notifications/:id", Name: "NotificationDetail", RequiresAuth: true},
	{Path: "/dashboard/transfers", Name: "Transfers", RequiresAuth: true},
	{Path: "/dashboard/transfers/:id", Name: "TransferDetail", RequiresAuth: true},
	{Path: "/dashboard/help", Name: "Help", RequiresAuth: true},
	{Path: "/dashboard/search", Name: "GlobalSearch", RequiresAuth: true},

	{Path: "/admin", Name: "AdminDashboard", RequiresAuth: true, RequiresAdmin: true},
	{Path: "/admin/users", Name: "UserManagement", RequiresAuth: true, RequiresAdmin: true},
	{Path: "/admin/roles", Name: "RoleManagement", RequiresAuth: true, RequiresAdmin: true},
	{Path: "/admin/organizations", Name: "OrganizationManagement", RequiresAuth: true, RequiresAdmin: true},
	{Path: "/admin/honors", Name: "HonorManagement", RequiresAuth: true, RequiresAdmin: true},
	{Path: "/admin/notifications", Name: "NotificationManagement", RequiresAuth: true, RequiresAdmin: true},
	{Path: "/admin/monitor", Name: "SystemMonitor", RequiresAuth: true, RequiresAdmin: true},
}

// notFound is the catch-all for unknown paths; it renders publicly.
var notFound = Route{Path: "/:pathMatch", Name: "NotFound"}

// Lookup resolves a navigation target to its route. Unknown paths resolve
// to the public not-found route.
func Lookup(path string) Route {
	segs := splitPath(path)
	for _, r := range Routes {
		if matchPath(splitPath(r.Path), segs) {
			return r
		}
	}
	return notFound
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchPath(pattern, segs []string) bool {
	if len(pattern) != len(segs) {
		return false
	}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return true
}
