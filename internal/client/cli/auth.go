package cli

import (
	"context"
	"fmt"
)

func (a *App) Register(ctx context.Context) error {
	name, err := GetRequiredText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, err := GetRequiredText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}

	u, err := a.client.Register(ctx, name, email, password)
	if err != nil {
		return a.report(err)
	}

	a.user = u
	fmt.Fprintf(a.out, "Welcome, %s!\n", u.Name)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}

	u, err := a.client.Login(ctx, email, password)
	if err != nil {
		return a.report(err)
	}

	a.user = u
	fmt.Fprintf(a.out, "Logged in as %s\n", u.Email)
	return nil
}

func (a *App) Logout(context.Context) error {
	a.client.Logout()
	a.user = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.client.Me(ctx)
	if err != nil {
		return a.report(err)
	}
	a.user = u
	fmt.Fprintf(a.out, "#%d %s <%s>\n", u.ID, u.Name, u.Email)
	return nil
}
