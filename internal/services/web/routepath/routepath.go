// Package routepath centralizes web route constants and builders.
package routepath

// Top-level route constants.
const (
	Root   = "/"
	Login  = "/login"
	Signup = "/signup"
	Logout = "/logout"
	Health = "/up"

	AppPrefix      = "/app/"
	ProjectsPrefix = "/app/projects/"
	PostsPrefix    = "/app/posts/"
	FeedbackPath   = "/app/feedback"
	APIPrefix      = "/api/"
	StaticPrefix   = "/static/"
)

// AppProject builds a project detail path.
func AppProject(projectID string) string {
	return ProjectsPrefix + projectID
}

// AppProjectSettings builds a project auto-submission settings path.
func AppProjectSettings(projectID string) string {
	return ProjectsPrefix + projectID + "/settings"
}

// AppPost builds a post detail path.
func AppPost(postID string) string {
	return PostsPrefix + postID
}
