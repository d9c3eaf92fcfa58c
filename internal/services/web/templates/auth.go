package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// LoginPage renders the sign-in form.
func LoginPage(email, errorMessage string) templ.Component {
	return PublicLayout("Sign in", authForm("Sign in", routepath.Login, email, errorMessage,
		fmt.Sprintf(`<p class="alt">New here? <a href=%q>Create an account</a></p>`, routepath.Signup)))
}

// SignupPage renders the registration form.
func SignupPage(email, errorMessage string) templ.Component {
	return PublicLayout("Create account", authForm("Create account", routepath.Signup, email, errorMessage,
		fmt.Sprintf(`<p class="alt">Already registered? <a href=%q>Sign in</a></p>`, routepath.Login)))
}

func authForm(label, action, email, errorMessage, altHTML string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ErrorBanner(errorMessage).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<form method="post" action=%q class="card auth">
<h1>%s</h1>
<label>Email<input type="email" name="email" value="%s" required autofocus></label>
<label>Password<input type="password" name="password" minlength="8" required></label>
<button type="submit">%s</button>
</form>%s`,
			action,
			templ.EscapeString(label),
			templ.EscapeString(email),
			templ.EscapeString(label),
			altHTML)
		return err
	})
}
