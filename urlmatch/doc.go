/*
Package urlmatch decides whether an outgoing request satisfies a rule's
method and URL pattern.

Patterns are either literal URLs or compiled regular expressions. Literal
patterns are compared after both sides have been normalised: hosts with
non-ASCII labels are converted to their punycode form and any remaining
non-ASCII characters are percent-encoded. Querystrings are ignored unless
strict matching is requested, in which case the query parameters must be
the same multiset of key/value pairs, in any order.

Regular expression patterns must match at the start of the normalised
request URL. The strict flag does not apply to them; the expression
decides what to do with the querystring.
*/
package urlmatch
