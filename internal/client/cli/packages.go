package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sampottinger/kipling-package-index/internal/client/models"
	"github.com/sampottinger/kipling-package-index/internal/client/services"
)

func (a *App) deployCommand(create bool) *cobra.Command {
	use, short := "update", "Publish a new version of a package and upload its archive"
	if create {
		use, short = "create", "Publish a new package and upload its archive"
	}

	var username string
	cmd := &cobra.Command{
		Use:   use + " NAME MODULE_JSON ZIP",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, password, err := a.credentials(username)
			if err != nil {
				return err
			}

			resp, err := a.deployer.Deploy(cmd.Context(), services.DeployRequest{
				Create:         create,
				Name:           args[0],
				Username:       user,
				Password:       password,
				DescriptorPath: args[1],
				ArchivePath:    args[2],
			})
			if err != nil {
				return err
			}
			a.success(resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "index username (prompted when empty)")
	return cmd
}

func (a *App) readCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read NAME",
		Short: "Show the stored record of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.api.ReadPackage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if resp.Record == nil {
				return fmt.Errorf("package %q: empty record in response", args[0])
			}
			return printRecord(a.out, resp.Record)
		},
	}
}

func (a *App) deleteCommand() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a package from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, password, err := a.credentials(username)
			if err != nil {
				return err
			}
			resp, err := a.api.DeletePackage(cmd.Context(), args[0], user, password)
			if err != nil {
				return err
			}
			a.success(resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "index username (prompted when empty)")
	return cmd
}

// credentials prompts for whatever was not given on the command line.
func (a *App) credentials(username string) (string, string, error) {
	if username == "" {
		u, err := GetSimpleText(a.in, "Username", a.out)
		if err != nil {
			return "", "", err
		}
		username = u
	}
	password, err := GetPassword(a.in, "Password", a.out)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func printRecord(w io.Writer, p *models.Package) error {
	if p.Description != nil && *p.Description != "" {
		fmt.Fprintf(w, "%s\n\n", *p.Description)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Field\tValue")
	fmt.Fprintf(tw, "name\t%s\n", p.Name)
	fmt.Fprintf(tw, "humanName\t%s\n", p.HumanName)
	fmt.Fprintf(tw, "version\t%s\n", p.Version)
	fmt.Fprintf(tw, "authors\t%s\n", p.AuthorList())
	fmt.Fprintf(tw, "license\t%s\n", p.License)
	fmt.Fprintf(tw, "homepage\t%s\n", deref(p.Homepage))
	fmt.Fprintf(tw, "repository\t%s\n", deref(p.Repository))
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
