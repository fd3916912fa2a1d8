package cli

import (
	"context"
	"strings"

	"prepcoach/internal/common"
	"prepcoach/internal/errors"
	"prepcoach/internal/types"

	"github.com/spf13/cobra"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Submit quizzes and review graded submissions",
}

var quizSubmitCmd = &cobra.Command{
	Use:   "submit [quiz-id]",
	Short: "Submit answers for a quiz",
	Long: `Submit answers for a quiz. Answers come from a JSON or YAML file with an
"answers" map, from repeated --answer question=choice flags, or both; flags
win over the file.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuizSubmit,
}

var quizHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List graded quiz submissions",
	Args:  cobra.NoArgs,
	RunE:  runQuizHistory,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Search job listings",
}

var jobsSearchCmd = &cobra.Command{
	Use:   "search [keywords...]",
	Short: "Search job listings",
	Args:  cobra.ArbitraryArgs,
	RunE:  runJobsSearch,
}

var internshipsCmd = &cobra.Command{
	Use:   "internships",
	Short: "List and join internship programmes",
}

var internshipsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your internship enrollments",
	Args:  cobra.NoArgs,
	RunE:  runInternshipsList,
}

var internshipsEnrollCmd = &cobra.Command{
	Use:   "enroll [internship-id]",
	Short: "Enroll in an internship programme",
	Args:  cobra.ExactArgs(1),
	RunE:  runInternshipsEnroll,
}

var (
	quizAnswersFile   string
	quizAnswers       map[string]string
	quizSubmitConfig  common.CommandConfig
	quizHistoryConfig common.CommandConfig
	jobQuery          types.JobQuery
	jobsConfig        common.CommandConfig
	enrollmentsConfig common.CommandConfig
	enrollConfig      common.CommandConfig
)

func init() {
	quizSubmitCmd.Flags().StringVarP(&quizAnswersFile, "answers-file", "a", "", "JSON or YAML file with the answers")
	quizSubmitCmd.Flags().StringToStringVar(&quizAnswers, "answer", nil, "Answer as question=choice, repeatable")
	addOutputFlags(quizSubmitCmd, &quizSubmitConfig)
	addOutputFlags(quizHistoryCmd, &quizHistoryConfig)
	quizCmd.AddCommand(quizSubmitCmd)
	quizCmd.AddCommand(quizHistoryCmd)

	jobsSearchCmd.Flags().StringVarP(&jobQuery.Location, "location", "l", "", "Location filter")
	jobsSearchCmd.Flags().BoolVar(&jobQuery.Remote, "remote", false, "Remote positions only")
	jobsSearchCmd.Flags().IntVar(&jobQuery.Page, "page", 1, "Result page")
	jobsSearchCmd.Flags().IntVar(&jobQuery.Limit, "limit", 20, "Results per page")
	addOutputFlags(jobsSearchCmd, &jobsConfig)
	jobsCmd.AddCommand(jobsSearchCmd)

	addOutputFlags(internshipsListCmd, &enrollmentsConfig)
	addOutputFlags(internshipsEnrollCmd, &enrollConfig)
	internshipsCmd.AddCommand(internshipsListCmd)
	internshipsCmd.AddCommand(internshipsEnrollCmd)
}

// quizSubmission assembles the answers from the file and the flags
func quizSubmission(a *app, quizID string) (types.QuizSubmission, error) {
	sub := types.QuizSubmission{QuizID: quizID}
	if quizAnswersFile != "" {
		if err := common.NewFileProcessor(a.logger).ReadStructured(quizAnswersFile, &sub); err != nil {
			return sub, err
		}
		sub.QuizID = quizID
	}
	if sub.Answers == nil {
		sub.Answers = make(map[string]any, len(quizAnswers))
	}
	for question, choice := range quizAnswers {
		sub.Answers[question] = choice
	}
	if len(sub.Answers) == 0 {
		return sub, errors.NewValidationError(errors.ErrCodeMissingField,
			"no answers given; use --answers-file or --answer question=choice", nil)
	}
	return sub, nil
}

func runQuizSubmit(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	client, err := a.apiClient()
	if err != nil {
		return err
	}
	sub, err := quizSubmission(a, args[0])
	if err != nil {
		return err
	}
	return common.RunCommand(cmd.Context(), a.logger, quizSubmitConfig, a.out, "quiz.submit",
		func(ctx context.Context) (*types.QuizResult, error) {
			return client.SubmitQuiz(ctx, sub)
		})
}

func runQuizHistory(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	client, err := a.apiClient()
	if err != nil {
		return err
	}
	return common.RunCommand(cmd.Context(), a.logger, quizHistoryConfig, a.out, "quiz.submissions", client.QuizSubmissions)
}

func runJobsSearch(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	client, err := a.apiClient()
	if err != nil {
		return err
	}
	query := jobQuery
	query.Keywords = strings.Join(args, " ")
	return common.RunCommand(cmd.Context(), a.logger, jobsConfig, a.out, "jobs.search",
		func(ctx context.Context) ([]types.Job, error) {
			return client.SearchJobs(ctx, query)
		})
}

func runInternshipsList(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	client, err := a.apiClient()
	if err != nil {
		return err
	}
	return common.RunCommand(cmd.Context(), a.logger, enrollmentsConfig, a.out, "internships.enrollments", client.Enrollments)
}

func runInternshipsEnroll(cmd *cobra.Command, args []string) error {
	a := getAppFromContext(cmd.Context())
	client, err := a.apiClient()
	if err != nil {
		return err
	}
	return common.RunCommand(cmd.Context(), a.logger, enrollConfig, a.out, "internships.enroll",
		func(ctx context.Context) (*types.Enrollment, error) {
			return client.Enroll(ctx, args[0])
		})
}
