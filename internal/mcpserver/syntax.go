package mcpserver

// SearchSyntaxGuide documents the query language accepted by the
// search_content tool.
const SearchSyntaxGuide = `# odshub Search Syntax

Queries match file names and page bodies approximately. Typos are tolerated
up to roughly one error per five characters. Matching is case-insensitive.

## Operators

    consent      fuzzy match
    =consent.md  the whole field equals "consent.md"
    'consent     includes "consent"
    !draft       does not include "draft"
    ^genomic     starts with "genomic"
    !^draft      does not start with "draft"
    .md$         ends with ".md"
    !-old.md$    does not end with "-old.md"

Whitespace joins tokens with AND; "|" separates alternatives (OR).
Wrap a phrase in double quotes to keep its spaces: '"data sharing"

## Results

Results are ranked best first and grouped by collection. Each hit carries a
slug (collection/name) that read_page accepts.
`
