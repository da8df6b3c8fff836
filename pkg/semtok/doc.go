/*
Package semtok turns classified byte ranges into the relative encoding used by
textDocument/semanticTokens responses.

Architecture:
------------

	 .gui text                       LSP client
	     |                               ^
	     v                               |
	+----------+   []Token    +-------------------+
	|  lexer   | -----------> |  Encode / Range   |
	+----------+              +-------------------+
	                                 |
	                         position.Buffer
	                        (offset -> line:col)

Wire Format:
-----------
Every emitted token is five integers:

	deltaLine, deltaStart, length, tokenType, tokenModifiers

deltaLine is relative to the previous emitted token. deltaStart is relative to the
previous token's column when both are on the same line, otherwise it is the
absolute column. Tokens that cannot be placed, or whose kind has no legend entry,
are dropped and do not move the cursor.

Known Limitation:
----------------
length is the byte width of the token, columns are code points. For tokens with
multibyte characters the highlighted width is wider than the text.
*/
package semtok
