// carlist converts the FM23CarID text dump into the car list read by
// forzadash. Existing entries in the output file are kept unless the dump
// has the same ordinal.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"io/ioutil"
	"os"
	"regexp"
	"strconv"

	"github.com/jd3nn1s/forzadash"
	"github.com/jd3nn1s/forzadash/carinfo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var inFile = flag.String("in", "FM23CarID.txt", "car id dump to convert")
var outFile = flag.String("out", "data/car_list.json", "car list to write")
var merge = flag.Bool("merge", true, "keep entries already in the output file")

var carPattern = regexp.MustCompile(`"Ordinal":\s*"(\d+)",\s*"Year":\s*"(\d+)",\s*"Make":\s*"([^"]*)",\s*"Model":\s*"([^"]*)"`)

func main() {
	flag.Parse()

	in, err := os.Open(*inFile)
	if err != nil {
		log.Fatal("unable to open car id dump: ", err)
	}
	defer in.Close()
	list, err := convert(in)
	if err != nil {
		log.Fatal(err)
	}

	if *merge {
		n, err := mergeExisting(*outFile, list)
		if err != nil {
			log.Fatal(err)
		}
		log.WithField("file", *outFile).WithField("cars", n).Info("kept existing entries")
	}

	out, err := os.Create(*outFile)
	if err != nil {
		log.Fatal("unable to create car list: ", err)
	}
	if err = write(out, list); err != nil {
		out.Close()
		log.Fatal(err)
	}
	if err = out.Close(); err != nil {
		log.Fatal("unable to write car list: ", err)
	}
	log.WithField("file", *outFile).WithField("cars", len(list)).Info("wrote car list")
}

// convert extracts every ordinal, year, make and model quadruple from the
// dump. Later entries for the same ordinal win.
func convert(r io.Reader) (map[int32]forzadash.Car, error) {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read car id dump")
	}
	list := map[int32]forzadash.Car{}
	for _, m := range carPattern.FindAllSubmatch(content, -1) {
		ordinal, err := strconv.ParseInt(string(m[1]), 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid ordinal %q", m[1])
		}
		year, err := strconv.Atoi(string(m[2]))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid year %q for ordinal %d", m[2], ordinal)
		}
		list[int32(ordinal)] = forzadash.Car{
			Year:  year,
			Make:  string(m[3]),
			Model: string(m[4]),
		}
	}
	if len(list) == 0 {
		return nil, errors.New("no cars found in car id dump")
	}
	return list, nil
}

// mergeExisting adds the cars of an existing car list that list does not
// already have. A missing file adds nothing.
func mergeExisting(fileName string, list map[int32]forzadash.Car) (int, error) {
	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		return 0, nil
	}
	existing, err := carinfo.Load(fileName)
	if err != nil {
		return 0, err
	}
	kept := 0
	for ordinal, car := range existing.Cars() {
		if _, ok := list[ordinal]; !ok {
			list[ordinal] = car
			kept++
		}
	}
	return kept, nil
}

func write(w io.Writer, list map[int32]forzadash.Car) error {
	keyed := make(map[string]forzadash.Car, len(list))
	for ordinal, car := range list {
		keyed[strconv.Itoa(int(ordinal))] = car
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(keyed), "unable to encode car list")
}
