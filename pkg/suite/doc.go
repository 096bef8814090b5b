// Package suite organizes end-to-end scenarios into classes and runs them.
//
// A Class groups scenarios that share state, in the order their DependsOn
// edges demand. Each scenario body receives a *Context carrying the run
// environment and class state, and a *retry.Attempt to assert against:
//
//	suite.Class{
//		Name: "WebHooks",
//		Scenarios: []suite.Scenario{{
//			Name:          "prepare",
//			Groups:        []string{"regression"},
//			MaxRetryCount: 1,
//			Run: func(c *suite.Context, a *retry.Attempt) {
//				require.NoError(a, createWebhook(c))
//			},
//		}},
//	}
//
// Runner executes selected classes from the CLI, RunT bridges a class into
// go test.
package suite
