/*
Package logging forwards logrus entries from Tarmac WebAssembly functions to
the host runtime.

Hook maps logrus levels onto the host logging functions Error, Warn, Info,
Debug and Trace. Adding it to the logger given to a replies.Mock surfaces
dispatch diagnostics in the host log:

	hook, _ := logging.NewHook(logging.Config{})
	logger := logrus.New()
	logger.AddHook(hook)
	m := replies.New(replies.Config{Logger: logger})
*/
package logging
