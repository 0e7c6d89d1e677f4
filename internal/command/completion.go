package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/flavorcache/internal/meta"
)

const bashCompletionScript = `# bash completion for flavorcache
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_flavorcache()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "restore save extract key completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local cache="--path -p --prefix --root --size-limit --tldr"
    local store="--store -s --namespace -n --ttl --s3-bucket --s3-region --s3-profile --s3-endpoint --s3-max-attempts --minio-endpoint --minio-bucket --minio-access-key --minio-secret-key --minio-insecure --redis-addr --redis-password --redis-db --memcache-servers"

    case "$cmd" in
        restore)
            local opts="$cache $store --restore-keys -r"
            ;;
        save)
            local opts="$cache $store"
            ;;
        extract)
            local opts="--key -k --path -p --prefix --dest --owner --repo --token --tldr"
            ;;
        key)
            local opts="--prefix --date -d --tldr"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts=""
            ;;
    esac

    if [[ "$prev" == "--store" || "$prev" == "-s" ]]; then
        COMPREPLY=( $(compgen -W "local s3 minio redis memcache" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--root" || "$prev" == "--dest" ]]; then
        COMPREPLY=( $(compgen -o dirnames -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--path" || "$prev" == "-p" ]]; then
        COMPREPLY=( $(compgen -f -- "$cur") )
        return 0
    fi

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _flavorcache flavorcache
`

const zshCompletionScript = `#compdef flavorcache

_flavorcache() {
  local -a cmds
  cmds=(
    'restore:restore the weekly cache entry'
    'save:save the workspace paths under the key restore recorded'
    'extract:extract a file from a workflow artifact'
    'key:print the weekly cache key'
    'completion:generate shell completion script'
  )

  local -a cache store
  cache=(
  '(-p --path)'{-p,--path}'[files or globs to cache]:path:_files'
  '--prefix[cache key prefix]:prefix'
  '--root[workspace directory]:dir:_directories'
  '--size-limit[largest archive to save]:size'
  '--tldr[show tldr page]'
  )
  store=(
  '(-s --store)'{-s,--store}'[backing store]:store:(local s3 minio redis memcache)'
  '(-n --namespace)'{-n,--namespace}'[namespace within the store]:namespace'
  '--ttl[entry lifetime]:duration'
  '--s3-bucket[S3 bucket]:bucket'
  '--s3-region[S3 region]:region'
  '--s3-profile[AWS profile]:profile'
  '--s3-endpoint[S3 endpoint]:url'
  '--s3-max-attempts[maximum S3 request attempts]:attempts'
  '--minio-endpoint[MinIO host\:port]:endpoint'
  '--minio-bucket[MinIO bucket]:bucket'
  '--minio-access-key[MinIO access key]:key'
  '--minio-secret-key[MinIO secret key]:key'
  '--minio-insecure[plain HTTP]'
  '--redis-addr[Redis host\:port]:addr'
  '--redis-password[Redis password]:password'
  '--redis-db[Redis database]:db'
  '--memcache-servers[memcached servers]:servers'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'flavorcache commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    restore)
      _arguments -C $cache $store \
        '(-r --restore-keys)'{-r,--restore-keys}'[fallback key prefixes]:keys'
      ;;
    save)
      _arguments -C $cache $store
      ;;
    extract)
      _arguments -C \
        '(-k --key)'{-k,--key}'[artifact name]:key' \
        '(-p --path)'{-p,--path}'[archive member]:path' \
        '--prefix[cache key prefix]:prefix' \
        '--dest[directory to extract into]:dir:_directories' \
        '--owner[repository owner]:owner' \
        '--repo[repository]:repo' \
        '--token[GitHub token]:token' \
        '--tldr[show tldr page]'
      ;;
    key)
      _arguments -C \
        '--prefix[cache key prefix]:prefix' \
        '(-d --date)'{-d,--date}'[date]:date' \
        '--tldr[show tldr page]'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _flavorcache flavorcache
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	w := cmd.Root().Writer
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: flavorcache completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "flavorcache completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
