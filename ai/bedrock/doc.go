// Package bedrock provides an ai.Provider backed by Amazon Bedrock Runtime.
//
// Requests use the Titan text embedding body format:
//
//	{"inputText": "..."}  ->  {"embedding": [...], "inputTextTokenCount": n}
//
// Bedrock throttling (ThrottlingException, TooManyRequestsException) is
// reported as ai.ErrThrottled so ai.ResilientEmbedder can back off.
package bedrock
