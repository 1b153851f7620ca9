package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/carbonos/internal/model"
)

func table(w io.Writer, write func(tw *tabwriter.Writer)) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	write(tw)
	_ = tw.Flush()
}

func (a *app) logCmd() *cobra.Command {
	var (
		distance float64
		hours    float64
		at       string
	)

	cmd := &cobra.Command{
		Use:   "log CATEGORY TYPE",
		Short: "Log an activity",
		Long: `Log an activity and recompute streak points.

  transportation: car, bus, train, plane, bike, walk (use --distance in miles)
  shopping:       online, inStore, foodDelivery
  energy:         home (use --hours)`,
		Example: "  carbonctl log transportation bike --distance 3\n  carbonctl log energy home --hours 8",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			act := model.Activity{
				Category: model.Category(args[0]),
				Type:     args[1],
				Distance: distance,
				Hours:    hours,
			}
			if at != "" {
				ts, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				act.Timestamp = ts
			}

			saved, err := a.svc.LogActivity(cmd.Context(), a.user, act)
			if err != nil {
				return err
			}
			a.logger.Debug("activity logged", zap.String("id", saved.ID), zap.Float64("emissions", saved.Emissions))

			return a.print(cmd.OutOrStdout(), saved, func(w io.Writer) {
				fmt.Fprintf(w, "Logged %s/%s: %.2f kg CO2e\n", saved.Category, saved.Type, saved.Emissions)
			})
		},
	}

	cmd.Flags().Float64VarP(&distance, "distance", "d", 0, "distance in miles")
	cmd.Flags().Float64Var(&hours, "hours", 0, "hours spent at home")
	cmd.Flags().StringVar(&at, "at", "", "activity time in RFC 3339, defaults to now")
	return cmd
}

func (a *app) activitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activities",
		Short: "List logged activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			activities, err := a.svc.Activities(cmd.Context(), a.user)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), activities, func(w io.Writer) {
				if len(activities) == 0 {
					fmt.Fprintln(w, "No activities yet.")
					return
				}
				table(w, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "TIME\tCATEGORY\tTYPE\tAMOUNT\tKG CO2E")
					for _, act := range activities {
						amount := strconv.FormatFloat(act.Distance, 'f', -1, 64) + " mi"
						if act.Category == model.CategoryEnergy {
							amount = strconv.FormatFloat(act.Hours, 'f', -1, 64) + " h"
						} else if act.Category == model.CategoryShopping {
							amount = "-"
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n",
							act.Timestamp.Local().Format("2006-01-02 15:04"), act.Category, act.Type, amount, act.Emissions)
					}
				})
			})
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show emissions for a period compared to the national average",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParsePeriod(period)
			if err != nil {
				return err
			}

			summary, err := a.svc.Summary(cmd.Context(), a.user, p)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), summary, func(w io.Writer) {
				verdict := "above"
				if summary.Comparison.BetterThanAverage {
					verdict = "below"
				}
				fmt.Fprintf(w, "Emissions (%s): %.2f kg CO2e (%s%% of %.0f kg average, %s)\n",
					summary.Period, summary.Total, summary.Comparison.Percentage,
					summary.Comparison.Average, verdict)
				for _, b := range summary.Breakdown {
					fmt.Fprintf(w, "  %-15s %.2f\n", b.Category, b.Value)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", string(model.PeriodDaily), "daily, weekly or monthly")
	return cmd
}

func (a *app) seriesCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Show emissions per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := a.svc.Series(cmd.Context(), a.user, days)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), series, func(w io.Writer) {
				table(w, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "DAY\tKG CO2E\tAVERAGE")
					for _, p := range series {
						fmt.Fprintf(tw, "%s\t%.2f\t%.0f\n", p.Day, p.Emissions, p.Average)
					}
				})
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "number of days ending today")
	return cmd
}

func (a *app) rewardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewards",
		Short: "Show streak and points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.svc.Rewards(cmd.Context(), a.user)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), r, func(w io.Writer) {
				fmt.Fprintf(w, "Current streak: %d days\n", r.CurrentStreak)
				fmt.Fprintf(w, "Longest streak: %d days\n", r.LongestStreak)
				fmt.Fprintf(w, "Points: %d earned, %d spent, %d available\n", r.TotalPoints, r.SpentPoints, r.AvailablePoints)
			})
		},
	}
}

func (a *app) businessesCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "businesses",
		Short: "List partner businesses and their offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			businesses := a.svc.Businesses(category)

			return a.print(cmd.OutOrStdout(), businesses, func(w io.Writer) {
				table(w, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPOINTS\tDISCOUNT")
					for _, b := range businesses {
						for _, o := range b.Coupons {
							fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", b.ID, b.Name, b.Category, o.Points, o.Discount)
						}
					}
				})
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category, see categories in the output")
	return cmd
}

func (a *app) redeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "redeem BUSINESS_ID POINTS",
		Short:   "Exchange points for a partner coupon",
		Example: "  carbonctl redeem biz_001 15",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("points must be a number: %w", err)
			}

			c, err := a.svc.Redeem(cmd.Context(), a.user, args[0], points)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), c, func(w io.Writer) {
				fmt.Fprintf(w, "Coupon %s: %s at %s, valid until %s\n",
					c.Code, c.Discount, c.BusinessName, c.ExpiresDate.Local().Format("2006-01-02"))
				fmt.Fprintf(w, "Coupon id: %s\n", c.ID)
			})
		},
	}
}

func (a *app) couponsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coupons",
		Short: "List redeemed coupons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overview, err := a.svc.Coupons(cmd.Context(), a.user)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), overview, func(w io.Writer) {
				table(w, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "STATUS\tID\tCODE\tBUSINESS\tDISCOUNT\tDAYS LEFT")
					groups := []struct {
						name    string
						coupons []model.CouponView
					}{
						{string(model.BucketActive), overview.Active},
						{string(model.BucketUsed), overview.Used},
						{string(model.BucketExpired), overview.Expired},
					}
					for _, g := range groups {
						for _, c := range g.coupons {
							fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", g.name, c.ID, c.Code, c.BusinessName, c.Discount, c.DaysLeft)
						}
					}
				})
			})
		},
	}
}

func (a *app) useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use COUPON_ID",
		Short: "Mark a coupon as used",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.svc.MarkCouponUsed(cmd.Context(), a.user, args[0])
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), c, func(w io.Writer) {
				fmt.Fprintf(w, "Coupon %s marked as used\n", c.Code)
			})
		},
	}
}

func (a *app) insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show achievements and tips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.svc.Insights(cmd.Context(), a.user)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintln(w, "Achievements:")
				for _, ach := range res.Achievements {
					mark := " "
					if ach.Unlocked {
						mark = "x"
					}
					fmt.Fprintf(w, "  [%s] %s %s: %s\n", mark, ach.Icon, ach.Name, ach.Description)
				}
				fmt.Fprintln(w, "Tips:")
				for _, tip := range res.Tips {
					fmt.Fprintf(w, "  %s %s: %s\n", tip.Icon, tip.Category, tip.Tip)
				}
			})
		},
	}
}

func (a *app) sleepCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sleep [on|off]",
		Short:     "Show or switch sleep mode; logging is blocked while it is on",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(args) == 1 {
				var enabled bool
				switch args[0] {
				case "on":
					enabled = true
				case "off":
				default:
					return fmt.Errorf("expected on or off, got %q", args[0])
				}
				if err := a.svc.SetSleepMode(ctx, a.user, enabled); err != nil {
					return err
				}
			}

			enabled, err := a.svc.SleepMode(ctx, a.user)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), map[string]bool{"enabled": enabled}, func(w io.Writer) {
				state := "off"
				if enabled {
					state = "on"
				}
				fmt.Fprintf(w, "Sleep mode is %s\n", state)
			})
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all data of the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete data of %q without --yes", a.user)
			}
			if err := a.svc.ClearData(cmd.Context(), a.user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Data of %s deleted\n", a.user)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
