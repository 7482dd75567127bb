package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage registered members",
		Long:  "Create and list the members that can log in to signgate.",
	}

	cmd.AddCommand(newMemberCreateCmd())
	cmd.AddCommand(newMemberListCmd())

	return cmd
}

// ---------- member create ----------

func newMemberCreateCmd() *cobra.Command {
	var (
		loginID  string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new member",
		Example: `  signgate member create --login-id user@example.com --password secret
  signgate member create --login-id user@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMemberCreate(loginID, password, name)
		},
	}

	cmd.Flags().StringVar(&loginID, "login-id", "", "Member login ID (required)")
	cmd.Flags().StringVar(&password, "password", "", "Member password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Member display name")
	cmd.MarkFlagRequired("login-id")

	return cmd
}

func runMemberCreate(loginID, password, name string) error {
	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		return err
	}

	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if password != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open member store: %w", err)
	}
	defer st.Close()

	authSvc := newAuthService(cfg, st)
	member, err := authSvc.CreateMember(context.Background(), loginID, password, name)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}

	fmt.Printf("Created member %q (id %d)\n", member.LoginID, member.ID)
	return nil
}

// ---------- member list ----------

func newMemberListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMemberList()
		},
	}

	return cmd
}

func runMemberList() error {
	cfg := loadConfig()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open member store: %w", err)
	}
	defer st.Close()

	members, err := st.ListMembers(context.Background())
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLOGIN ID\tNAME\tROLE\tCREATED")
	for _, m := range members {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			m.ID, m.LoginID, m.Name, m.Role, m.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
