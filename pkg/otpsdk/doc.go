// Package otpsdk provides a Go client and the shared wire types for the
// otpgate service. Host authentication flows embed the client to drive the
// OTP step: begin a challenge, relay the user's submission, resend codes,
// and collect the signed step-up assertion on success.
//
// Basic usage:
//
//	client := otpsdk.NewClient("http://localhost:8080")
//	begin, err := client.BeginChallenge(ctx, otpsdk.BeginChallengeRequest{
//		PrincipalID: user.ID,
//		ClientID:    "portal",
//	})
//	if err != nil { ... }
//	if begin.Status == otpsdk.StatusPassed {
//		// principal not enrolled, continue the login flow
//	}
//
//	result, err := client.SubmitCode(ctx, begin.ChallengeID, userInput)
//	if err != nil { ... }
//	if result.Status == otpsdk.StatusVerified {
//		// result.StepUpToken asserts the completed factor
//	}
package otpsdk
