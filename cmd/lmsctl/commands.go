package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin/binding"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	readPasswordFunc = term.ReadPassword

	errHelp = errors.New("help provided")
)

type commandLine struct {
	auth     *service.AuthService
	syllabus *service.SyllabusService
	rankings *service.RankingService
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  create-admin -name NAME -email EMAIL  - create an active admin, password is prompted")
	fmt.Fprintln(cli.out, "  seed-syllabus -file FILE              - upsert syllabuses from a YAML file")
	fmt.Fprintln(cli.out, "  recompute-rankings                    - rebuild every ranking row and rank")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	adminName := createAdminCmd.String("name", "Administrator", "display name")
	adminEmail := createAdminCmd.String("email", "", "login email")

	seedCmd := flag.NewFlagSet("seed-syllabus", flag.ContinueOnError)
	seedFile := seedCmd.String("file", "seeds/syllabus.yaml", "YAML seed file")

	switch args[1] {
	case "create-admin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *adminEmail == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		user, err := cli.auth.CreateAdmin(*adminName, *adminEmail, string(pwd))
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cli.out, "admin %s created (id %d)\n", user.Email, user.ID)
		return nil

	case "seed-syllabus":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		reqs, err := loadSyllabusSeed(*seedFile)
		if err != nil {
			return err
		}
		created, updated, err := cli.syllabus.Seed(reqs)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cli.out, "syllabus seed: %d created, %d updated\n", created, updated)
		return nil

	case "recompute-rankings":
		n, err := cli.rankings.RecomputeAll(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "rankings rebuilt for %d students\n", n)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

// loadSyllabusSeed 读取并按接口相同的规则校验种子文件
func loadSyllabusSeed(path string) ([]service.CreateSyllabusRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reqs []service.CreateSyllabusRequest
	if err := yaml.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range reqs {
		if err := binding.Validator.ValidateStruct(&reqs[i]); err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", path, i, describe(util.TranslateBindError(err)))
		}
	}
	return reqs, nil
}

// describe 把字段错误展开，便于终端阅读
func describe(err error) error {
	var appErr *util.AppError
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		return fmt.Errorf("%s: %v", appErr.Message, appErr.Fields)
	}
	return err
}
