package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/services"
	"github.com/nexconsult/fssp-api/internal/utils"
)

func newIPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "ip <number>",
		Short:   "Search by enforcement proceeding number",
		Example: "  fssp ip 342956/24/23060-ИП",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := utils.ValidateIPNumber(args[0])
			if err != nil {
				return err
			}
			return ctx.search(cmd, func(svc services.FSSPServiceInterface) (*models.SearchResult, error) {
				return svc.ByIP(cmd.Context(), number)
			})
		},
	}
}

func newPersonCommand(ctx *commandContext) *cobra.Command {
	var lastName, firstName, patronymic, birthday string

	cmd := &cobra.Command{
		Use:     "person",
		Short:   "Search by debtor full name and birth date",
		Example: "  fssp person --last-name Иванов --first-name Иван --birthday 01.01.1980",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := utils.ValidatePerson(lastName, firstName, patronymic, birthday, time.Now())
			if err != nil {
				return err
			}
			return ctx.search(cmd, func(svc services.FSSPServiceInterface) (*models.SearchResult, error) {
				return svc.ByPerson(cmd.Context(), query)
			})
		},
	}

	cmd.Flags().StringVarP(&lastName, "last-name", "l", "", "Last name")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVarP(&patronymic, "patronymic", "p", "", "Patronymic (optional)")
	cmd.Flags().StringVarP(&birthday, "birthday", "b", "", "Birth date DD.MM.YYYY")

	return cmd
}

func newINNCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "inn <inn>",
		Short:   "Search by taxpayer number (10 or 12 digits)",
		Example: "  fssp inn 7707083893",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inn, err := utils.ValidateINN(args[0])
			if err != nil {
				return err
			}
			return ctx.search(cmd, func(svc services.FSSPServiceInterface) (*models.SearchResult, error) {
				return svc.ByINN(cmd.Context(), inn)
			})
		},
	}
}

func (c *commandContext) search(cmd *cobra.Command, run func(services.FSSPServiceInterface) (*models.SearchResult, error)) error {
	svc, err := c.ensureService()
	if err != nil {
		return err
	}
	defer c.close()

	result, err := run(svc)
	if err != nil {
		return err
	}

	return renderResult(cmd, c.format, result)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
